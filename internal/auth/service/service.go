package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"biogate/internal/auth/metrics"
	"biogate/internal/auth/models"
	biomodels "biogate/internal/biometric/models"
	"biogate/internal/biometric/capability"
	"biogate/internal/biometric/verifier"
	"biogate/internal/directory"
	audit "biogate/pkg/platform/audit"
	"biogate/pkg/platform/sentinel"
	"biogate/pkg/requestcontext"
)

const tracerName = "biogate/internal/auth/service"

type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*directory.Identity, error)
	CheckSecret(ctx context.Context, email, candidate string) bool
}

type VerifierRegistry interface {
	Get(m biomodels.Modality) (verifier.Verifier, bool)
	Modalities() []biomodels.Modality
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// pathSelector is implemented by verifiers with more than one strategy.
type pathSelector interface {
	SelectPath(c capability.Capability) (verifier.Path, time.Duration)
}

// Service composes credential lookups with biometric verifiers. It holds
// only state that is immutable after startup.
type Service struct {
	identities IdentityStore
	verifiers  VerifierRegistry
	capability capability.Capability

	requireSubject        bool
	requireReferenceMatch bool

	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithSubjectCheck toggles the directory lookup before a biometric check.
func WithSubjectCheck(enabled bool) Option {
	return func(s *Service) {
		s.requireSubject = enabled
	}
}

// WithReferenceMatch requires the sample to carry the enrolled reference of
// the subject for the checked modality. Enabling it implies a subject check.
func WithReferenceMatch(enabled bool) Option {
	return func(s *Service) {
		s.requireReferenceMatch = enabled
	}
}

// New constructs a Service. Subject checking is on by default.
func New(identities IdentityStore, verifiers VerifierRegistry, c capability.Capability, opts ...Option) *Service {
	s := &Service{
		identities:     identities,
		verifiers:      verifiers,
		capability:     c,
		requireSubject: true,
		logger:         slog.New(slog.DiscardHandler),
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capability returns the hardware snapshot the service verifies against.
func (s *Service) Capability() capability.Capability {
	return s.capability
}

// AuthenticateCredentials checks an email and secret pair. Unknown identities
// and wrong secrets are indistinguishable in the result.
func (s *Service) AuthenticateCredentials(ctx context.Context, email, secret string) models.AuthenticationDecision {
	ctx, span := s.tracer.Start(ctx, "auth.credentials")
	defer span.End()

	decision := models.Denied()
	if s.identities.CheckSecret(ctx, email, secret) {
		decision = models.Granted()
	}
	span.SetAttributes(attribute.Bool("auth.success", decision.Success))

	s.metrics.IncrementCredentialOutcome(decision.Success)
	s.logger.InfoContext(ctx, "credentials checked",
		"request_id", requestcontext.RequestID(ctx),
		"subject", email,
		"success", decision.Success,
	)
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventCredentialsChecked),
		Subject:  email,
		Decision: decisionLabel(decision.Success),
		Reason:   decision.Message,
	})
	return decision
}

// AuthenticateBiometric runs one modality for subjectID. When subject
// checking is enabled an unknown subject short-circuits before the verifier
// is invoked.
func (s *Service) AuthenticateBiometric(ctx context.Context, m biomodels.Modality, subjectID string, sample biomodels.Sample) biomodels.VerificationResult {
	ctx, span := s.tracer.Start(ctx, "auth.biometric", trace.WithAttributes(
		attribute.String("biometric.modality", string(m)),
	))
	defer span.End()

	sample.SubjectID = subjectID
	result, path := s.authenticateBiometric(ctx, m, sample)
	span.SetAttributes(
		attribute.Bool("auth.success", result.Success),
		attribute.String("auth.reason", string(result.Reason)),
	)

	s.metrics.IncrementBiometricOutcome(string(m), result.Success, string(result.Reason))
	s.logger.InfoContext(ctx, "biometric verified",
		"request_id", requestcontext.RequestID(ctx),
		"subject", subjectID,
		"modality", m,
		"path", path,
		"success", result.Success,
		"reason", result.Reason,
	)
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventBiometricVerified),
		Subject:  subjectID,
		Modality: string(m),
		Decision: decisionLabel(result.Success),
		Reason:   string(result.Reason),
		Path:     string(path),
	})
	return result
}

func (s *Service) authenticateBiometric(ctx context.Context, m biomodels.Modality, sample biomodels.Sample) (biomodels.VerificationResult, verifier.Path) {
	v, ok := s.verifiers.Get(m)
	if !ok {
		return biomodels.Failed(m, biomodels.ReasonUnsupportedModality), ""
	}

	if s.requireSubject || s.requireReferenceMatch {
		identity, err := s.identities.FindByEmail(ctx, sample.SubjectID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return biomodels.Failed(m, biomodels.ReasonUserNotFound), ""
			}
			s.logger.ErrorContext(ctx, "identity lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"modality", m,
				"error", err,
			)
			return biomodels.Failed(m, biomodels.ReasonVerificationFailed), ""
		}
		if s.requireReferenceMatch && !referenceMatches(identity, m, sample.Reference) {
			return biomodels.Failed(m, biomodels.ReasonReferenceMismatch), ""
		}
	}

	path := verifier.PathSimulated
	if ps, ok := v.(pathSelector); ok {
		path, _ = ps.SelectPath(s.capability)
	}

	result := biomodels.VerificationResult{Modality: m, Success: v.Verify(ctx, sample, s.capability)}
	if !result.Success {
		result.Reason = biomodels.ReasonVerificationFailed
	}
	if m == biomodels.ModalityFingerprint {
		available := s.capability.FingerprintHardwareAvailable
		result.HardwareAvailable = &available
		result.Platform = string(s.capability.Platform)
	}
	return result, path
}

// AuthenticateMultiFactor checks credentials first and, only if they pass,
// runs every requested modality concurrently. Overall success requires every
// factor to pass.
func (s *Service) AuthenticateMultiFactor(ctx context.Context, req models.MultiFactorRequest) models.MultiFactorResult {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "auth.multi_factor")
	defer span.End()

	result := models.MultiFactorResult{
		Credentials: s.AuthenticateCredentials(ctx, req.Email, req.Password),
	}
	if result.Credentials.Success {
		result.Factors = s.verifyFactors(ctx, req)
		result.Success = len(result.Factors) > 0
		for _, f := range result.Factors {
			result.Success = result.Success && f.Success
		}
	}
	span.SetAttributes(attribute.Bool("auth.success", result.Success))

	s.metrics.ObserveMultiFactorLatency(time.Since(start))
	s.logger.InfoContext(ctx, "multi-factor authentication completed",
		"request_id", requestcontext.RequestID(ctx),
		"subject", req.Email,
		"success", result.Success,
		"failed_factors", result.FailedFactors(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventMultiFactorCompleted),
		Subject:  req.Email,
		Decision: decisionLabel(result.Success),
	})
	return result
}

func (s *Service) verifyFactors(ctx context.Context, req models.MultiFactorRequest) []biomodels.VerificationResult {
	modalities := req.Modalities
	if len(modalities) == 0 {
		modalities = s.verifiers.Modalities()
	}

	// Verifiers never return errors; the group only bounds the fan-out.
	factors := make([]biomodels.VerificationResult, len(modalities))
	var g errgroup.Group
	for i, m := range modalities {
		g.Go(func() error {
			factors[i] = s.AuthenticateBiometric(ctx, m, req.Email, req.SampleFor(m))
			return nil
		})
	}
	_ = g.Wait()
	return factors
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.Category = audit.CategorySecurity
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"request_id", requestcontext.RequestID(ctx),
			"action", event.Action,
			"error", err,
		)
	}
}

func referenceMatches(identity *directory.Identity, m biomodels.Modality, candidate string) bool {
	if !identity.Enrolled(m) || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(identity.Reference(m)), []byte(candidate)) == 1
}

func decisionLabel(success bool) string {
	if success {
		return audit.DecisionGranted
	}
	return audit.DecisionDenied
}
