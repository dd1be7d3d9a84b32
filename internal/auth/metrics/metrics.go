package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for credential and biometric checks.
type Metrics struct {
	// Credential check outcomes: "granted", "denied"
	CredentialOutcome *prometheus.CounterVec

	// Biometric outcomes by modality, result and reason
	BiometricOutcome *prometheus.CounterVec

	// Simulated sensor latency by modality and path
	VerificationLatency *prometheus.HistogramVec

	// Full multi-factor evaluation latency
	MultiFactorLatency prometheus.Histogram
}

// New creates a Metrics instance registered with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics with reg. A nil reg leaves them
// unregistered.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CredentialOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biogate_credential_checks_total",
			Help: "Total credential checks by outcome",
		}, []string{"outcome"}),

		BiometricOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biogate_biometric_checks_total",
			Help: "Total biometric checks by modality, outcome and reason",
		}, []string{"modality", "outcome", "reason"}),

		VerificationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "biogate_verification_duration_seconds",
			Help:    "Duration of simulated biometric verification by modality and path",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 2.5, 3, 3.5, 5},
		}, []string{"modality", "path"}), // path: "native", "fallback", "simulated"

		MultiFactorLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "biogate_multi_factor_duration_seconds",
			Help:    "Duration of a full multi-factor authentication",
			Buckets: []float64{0.01, 0.5, 1, 2, 3, 4, 5, 10},
		}),
	}
}

// IncrementCredentialOutcome records a credential check result.
func (m *Metrics) IncrementCredentialOutcome(success bool) {
	if m != nil {
		m.CredentialOutcome.WithLabelValues(outcome(success)).Inc()
	}
}

// IncrementBiometricOutcome records a biometric check result. Reason is empty
// on success.
func (m *Metrics) IncrementBiometricOutcome(modality string, success bool, reason string) {
	if m != nil {
		m.BiometricOutcome.WithLabelValues(modality, outcome(success), reason).Inc()
	}
}

// ObserveVerification implements verifier.Observer.
func (m *Metrics) ObserveVerification(modality, path string, d time.Duration, _ bool) {
	if m != nil {
		m.VerificationLatency.WithLabelValues(modality, path).Observe(d.Seconds())
	}
}

// ObserveMultiFactorLatency records the total multi-factor duration.
func (m *Metrics) ObserveMultiFactorLatency(d time.Duration) {
	if m != nil {
		m.MultiFactorLatency.Observe(d.Seconds())
	}
}

func outcome(success bool) string {
	if success {
		return "granted"
	}
	return "denied"
}
