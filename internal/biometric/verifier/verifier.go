// Package verifier implements the per-modality biometric checks.
//
// Every Verifier is a simulation seam: it validates the sample, waits out a
// modality-specific sensor delay and asks a Policy for the decision. Swapping
// in a real sensor integration means providing another Verifier; the
// orchestrator never sees the difference.
//
// Verifiers fail closed. A malformed sample, a cancelled context or a panic
// inside the decision all yield false.
package verifier

import (
	"context"
	"fmt"
	"slices"
	"time"

	"biogate/internal/biometric/capability"
	"biogate/internal/biometric/models"
)

//go:generate mockgen -source=verifier.go -destination=mocks/mocks.go -package=mocks Verifier

// Verifier checks one biometric modality.
type Verifier interface {
	Modality() models.Modality
	Verify(ctx context.Context, sample models.Sample, c capability.Capability) bool
}

// Path names the strategy a verification took.
type Path string

const (
	PathNative    Path = "native"
	PathFallback  Path = "fallback"
	PathSimulated Path = "simulated"
)

// Observer receives one call per completed verification.
type Observer interface {
	ObserveVerification(modality, path string, d time.Duration, success bool)
}

// Config holds the simulated sensor timings.
type Config struct {
	FingerprintNativeDelay   time.Duration
	FingerprintFallbackDelay time.Duration
	HeartbeatDelay           time.Duration
	DNADelay                 time.Duration
	MaxSampleBytes           int
}

// DefaultConfig mirrors the latency of the reference sensors.
func DefaultConfig() Config {
	return Config{
		FingerprintNativeDelay:   2 * time.Second,
		FingerprintFallbackDelay: 2 * time.Second,
		HeartbeatDelay:           2 * time.Second,
		DNADelay:                 3 * time.Second,
		MaxSampleBytes:           64 << 10,
	}
}

// Registry maps each modality to its Verifier. It is immutable once built.
type Registry struct {
	verifiers map[models.Modality]Verifier
}

// NewRegistry indexes verifiers by modality, rejecting duplicates.
func NewRegistry(vs ...Verifier) (*Registry, error) {
	r := &Registry{verifiers: make(map[models.Modality]Verifier, len(vs))}
	for _, v := range vs {
		m := v.Modality()
		if _, exists := r.verifiers[m]; exists {
			return nil, fmt.Errorf("verifier for %s already registered", m)
		}
		r.verifiers[m] = v
	}
	return r, nil
}

// NewDefaultRegistry wires the three simulated verifiers.
func NewDefaultRegistry(cfg Config, policy Policy, opts ...Option) *Registry {
	r, _ := NewRegistry(
		NewFingerprint(cfg, policy, opts...),
		NewHeartbeat(cfg, policy, opts...),
		NewDNA(cfg, policy, opts...),
	)
	return r
}

// Get returns the verifier for m.
func (r *Registry) Get(m models.Modality) (Verifier, bool) {
	v, ok := r.verifiers[m]
	return v, ok
}

// Modalities lists registered modalities in login-flow order.
func (r *Registry) Modalities() []models.Modality {
	out := make([]models.Modality, 0, len(r.verifiers))
	for _, m := range models.AllModalities {
		if _, ok := r.verifiers[m]; ok {
			out = append(out, m)
		}
	}
	for m := range r.verifiers {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
