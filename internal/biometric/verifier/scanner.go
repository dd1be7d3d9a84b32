package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"biogate/internal/biometric/capability"
	"biogate/internal/biometric/models"
)

const tracerName = "biogate/internal/biometric/verifier"

// Option customizes a verifier.
type Option func(*scanner)

// WithObserver reports every completed verification to o.
func WithObserver(o Observer) Option {
	return func(s *scanner) { s.observer = o }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *scanner) { s.logger = logger }
}

// WithSleeper replaces the delay primitive, for tests.
func WithSleeper(sleep Sleeper) Option {
	return func(s *scanner) { s.sleep = sleep }
}

// scanner is the shared validate-wait-decide pipeline.
type scanner struct {
	modality       models.Modality
	policy         Policy
	maxSampleBytes int
	sleep          Sleeper
	observer       Observer
	logger         *slog.Logger
	tracer         trace.Tracer
}

func newScanner(m models.Modality, maxSampleBytes int, policy Policy, opts []Option) scanner {
	s := scanner{
		modality:       m,
		policy:         policy,
		maxSampleBytes: maxSampleBytes,
		sleep:          Sleep,
		logger:         slog.New(slog.DiscardHandler),
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s *scanner) Modality() models.Modality { return s.modality }

func (s *scanner) scan(ctx context.Context, sample models.Sample, path Path, delay time.Duration) (ok bool) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "biometric.verify", trace.WithAttributes(
		attribute.String("biometric.modality", string(s.modality)),
		attribute.String("biometric.path", string(path)),
	))
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("verifier panic: %v", r)
			s.logger.ErrorContext(ctx, "biometric verification panicked",
				"modality", s.modality,
				"error", err,
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			ok = false
		}
		span.SetAttributes(attribute.Bool("biometric.success", ok))
		span.End()
		if s.observer != nil {
			s.observer.ObserveVerification(string(s.modality), string(path), time.Since(start), ok)
		}
	}()

	if err := sample.Validate(s.maxSampleBytes); err != nil {
		s.logger.WarnContext(ctx, "rejecting biometric sample",
			"modality", s.modality,
			"error", err,
		)
		span.RecordError(err)
		return false
	}

	if err := s.sleep(ctx, delay); err != nil {
		s.logger.WarnContext(ctx, "biometric verification interrupted",
			"modality", s.modality,
			"error", err,
		)
		span.RecordError(err)
		return false
	}

	return s.policy.Decide()
}

// Fingerprint prefers the native sensor path when the capability snapshot
// reports one and falls back to the software path otherwise.
type Fingerprint struct {
	scanner
	nativeDelay   time.Duration
	fallbackDelay time.Duration
}

func NewFingerprint(cfg Config, policy Policy, opts ...Option) *Fingerprint {
	return &Fingerprint{
		scanner:       newScanner(models.ModalityFingerprint, cfg.MaxSampleBytes, policy, opts),
		nativeDelay:   cfg.FingerprintNativeDelay,
		fallbackDelay: cfg.FingerprintFallbackDelay,
	}
}

// SelectPath picks the strategy and its delay for the given snapshot.
func (f *Fingerprint) SelectPath(c capability.Capability) (Path, time.Duration) {
	if c.NativeFingerprint() {
		return PathNative, f.nativeDelay
	}
	return PathFallback, f.fallbackDelay
}

func (f *Fingerprint) Verify(ctx context.Context, sample models.Sample, c capability.Capability) bool {
	path, delay := f.SelectPath(c)
	return f.scan(ctx, sample, path, delay)
}

// Heartbeat has no hardware distinction.
type Heartbeat struct {
	scanner
	delay time.Duration
}

func NewHeartbeat(cfg Config, policy Policy, opts ...Option) *Heartbeat {
	return &Heartbeat{
		scanner: newScanner(models.ModalityHeartbeat, cfg.MaxSampleBytes, policy, opts),
		delay:   cfg.HeartbeatDelay,
	}
}

func (h *Heartbeat) Verify(ctx context.Context, sample models.Sample, _ capability.Capability) bool {
	return h.scan(ctx, sample, PathSimulated, h.delay)
}

// DNA carries the longest delay of the three modalities.
type DNA struct {
	scanner
	delay time.Duration
}

func NewDNA(cfg Config, policy Policy, opts ...Option) *DNA {
	return &DNA{
		scanner: newScanner(models.ModalityDNA, cfg.MaxSampleBytes, policy, opts),
		delay:   cfg.DNADelay,
	}
}

func (d *DNA) Verify(ctx context.Context, sample models.Sample, _ capability.Capability) bool {
	return d.scan(ctx, sample, PathSimulated, d.delay)
}
