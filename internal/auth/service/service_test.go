package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"biogate/internal/auth/models"
	biomodels "biogate/internal/biometric/models"
	"biogate/internal/biometric/capability"
	"biogate/internal/biometric/verifier"
	"biogate/internal/biometric/verifier/mocks"
	"biogate/internal/directory"
	audit "biogate/pkg/platform/audit"
	"biogate/pkg/requestcontext"
	"biogate/pkg/testutil"
)

const (
	knownEmail  = "user@example.com"
	knownSecret = "password123"
	ghostEmail  = "ghost@example.com"
)

var linuxHost = capability.Capability{Platform: capability.PlatformOther, OS: "linux"}

type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingPublisher) Emit(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	store      *directory.InMemoryStore
	publisher  *recordingPublisher
	verifiers  map[biomodels.Modality]*mocks.MockVerifier
	registry   *verifier.Registry
	ctx        context.Context
	defaultOpt []Option
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	store, err := directory.NewInMemoryStore(directory.DefaultIdentity)
	s.Require().NoError(err)
	s.store = store
	s.publisher = &recordingPublisher{}

	s.verifiers = make(map[biomodels.Modality]*mocks.MockVerifier)
	vs := make([]verifier.Verifier, 0, len(biomodels.AllModalities))
	for _, m := range biomodels.AllModalities {
		mv := mocks.NewMockVerifier(s.ctrl)
		mv.EXPECT().Modality().Return(m).AnyTimes()
		s.verifiers[m] = mv
		vs = append(vs, mv)
	}
	s.registry, err = verifier.NewRegistry(vs...)
	s.Require().NoError(err)

	s.ctx = requestcontext.WithRequestID(context.Background(), "req-test")
	s.defaultOpt = []Option{WithAuditPublisher(s.publisher)}
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	return New(s.store, s.registry, linuxHost, append(s.defaultOpt, opts...)...)
}

func (s *ServiceSuite) TestAuthenticateCredentials() {
	svc := s.newService()

	s.Run("known email with correct secret succeeds", func() {
		d := svc.AuthenticateCredentials(s.ctx, knownEmail, knownSecret)
		s.True(d.Success)
		s.Empty(d.Message)
	})

	s.Run("known email with wrong secret fails with generic message", func() {
		d := svc.AuthenticateCredentials(s.ctx, knownEmail, "wrong")
		s.False(d.Success)
		s.Equal("Invalid email or password", d.Message)
	})

	s.Run("unknown email fails with non-empty message", func() {
		for _, email := range []string{ghostEmail, "", "USER@example.com", " user@example.com"} {
			d := svc.AuthenticateCredentials(s.ctx, email, knownSecret)
			s.False(d.Success, email)
			s.NotEmpty(d.Message, email)
		}
	})

	s.Run("every check is audited", func() {
		s.Contains(s.publisher.actions(), string(audit.EventCredentialsChecked))
	})
}

func (s *ServiceSuite) TestAuthenticateBiometric_UnknownSubjectSkipsVerifier() {
	svc := s.newService()
	s.verifiers[biomodels.ModalityDNA].EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	start := time.Now()
	result := svc.AuthenticateBiometric(s.ctx, biomodels.ModalityDNA, ghostEmail, biomodels.Sample{})

	s.False(result.Success)
	s.Equal(biomodels.ReasonUserNotFound, result.Reason)
	s.Less(time.Since(start), 100*time.Millisecond)
}

func (s *ServiceSuite) TestAuthenticateBiometric_SubjectCheckDisabled() {
	svc := s.newService(WithSubjectCheck(false))
	s.verifiers[biomodels.ModalityHeartbeat].EXPECT().
		Verify(gomock.Any(), gomock.Any(), linuxHost).
		Return(true).Times(1)

	result := svc.AuthenticateBiometric(s.ctx, biomodels.ModalityHeartbeat, ghostEmail, biomodels.Sample{})

	s.True(result.Success)
	s.Empty(result.Reason)
	s.Nil(result.HardwareAvailable)
	s.Empty(result.Platform)
}

func (s *ServiceSuite) TestAuthenticateBiometric_VerifierOutcome() {
	svc := s.newService()

	s.Run("negative verifier result reports failure reason", func() {
		s.verifiers[biomodels.ModalityDNA].EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
		result := svc.AuthenticateBiometric(s.ctx, biomodels.ModalityDNA, knownEmail, biomodels.Sample{})
		s.False(result.Success)
		s.Equal(biomodels.ReasonVerificationFailed, result.Reason)
	})

	s.Run("sample is bound to the subject", func() {
		s.verifiers[biomodels.ModalityDNA].EXPECT().
			Verify(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, sample biomodels.Sample, _ capability.Capability) bool {
				s.Equal(knownEmail, sample.SubjectID)
				return true
			})
		result := svc.AuthenticateBiometric(s.ctx, biomodels.ModalityDNA, knownEmail, biomodels.Sample{SubjectID: "spoofed"})
		s.True(result.Success)
	})

	s.Run("unsupported modality never reaches a verifier", func() {
		result := svc.AuthenticateBiometric(s.ctx, biomodels.Modality("iris"), knownEmail, biomodels.Sample{})
		s.False(result.Success)
		s.Equal(biomodels.ReasonUnsupportedModality, result.Reason)
	})
}

func (s *ServiceSuite) TestAuthenticateBiometric_FingerprintDiagnostics() {
	svc := s.newService()
	s.verifiers[biomodels.ModalityFingerprint].EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(true)

	result := svc.AuthenticateBiometric(s.ctx, biomodels.ModalityFingerprint, knownEmail, biomodels.Sample{})

	s.True(result.Success)
	s.Require().NotNil(result.HardwareAvailable)
	s.False(*result.HardwareAvailable)
	s.Equal("other", result.Platform)
}

func (s *ServiceSuite) TestAuthenticateBiometric_ReferenceMatch() {
	svc := s.newService(WithSubjectCheck(false), WithReferenceMatch(true))

	s.Run("wrong reference is rejected before verification", func() {
		s.verifiers[biomodels.ModalityHeartbeat].EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		result := svc.AuthenticateBiometric(s.ctx, biomodels.ModalityHeartbeat, knownEmail, biomodels.Sample{Reference: "fp_12345"})
		s.False(result.Success)
		s.Equal(biomodels.ReasonReferenceMismatch, result.Reason)
	})

	s.Run("missing reference is rejected", func() {
		result := svc.AuthenticateBiometric(s.ctx, biomodels.ModalityHeartbeat, knownEmail, biomodels.Sample{})
		s.Equal(biomodels.ReasonReferenceMismatch, result.Reason)
	})

	s.Run("unknown subject still short-circuits", func() {
		result := svc.AuthenticateBiometric(s.ctx, biomodels.ModalityHeartbeat, ghostEmail, biomodels.Sample{Reference: "hb_12345"})
		s.Equal(biomodels.ReasonUserNotFound, result.Reason)
	})

	s.Run("enrolled reference reaches the verifier", func() {
		s.verifiers[biomodels.ModalityHeartbeat].EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(true).Times(1)
		result := svc.AuthenticateBiometric(s.ctx, biomodels.ModalityHeartbeat, knownEmail, biomodels.Sample{Reference: "hb_12345"})
		s.True(result.Success)
	})
}

func (s *ServiceSuite) TestAuthenticateMultiFactor() {
	svc := s.newService()

	s.Run("bad credentials skip every factor", func() {
		for _, mv := range s.verifiers {
			mv.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		}
		result := svc.AuthenticateMultiFactor(s.ctx, models.MultiFactorRequest{Email: knownEmail, Password: "wrong"})
		s.False(result.Success)
		s.False(result.Credentials.Success)
		s.Empty(result.Factors)
	})

	s.Run("all factors passing grants access in flow order", func() {
		for _, mv := range s.verifiers {
			mv.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(true).Times(1)
		}
		result := svc.AuthenticateMultiFactor(s.ctx, models.MultiFactorRequest{Email: knownEmail, Password: knownSecret})
		s.True(result.Success)
		s.Require().Len(result.Factors, 3)
		for i, m := range biomodels.AllModalities {
			s.Equal(m, result.Factors[i].Modality)
		}
		s.Empty(result.FailedFactors())
	})

	s.Run("one failing factor denies access", func() {
		s.verifiers[biomodels.ModalityHeartbeat].EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(false).Times(1)
		s.verifiers[biomodels.ModalityDNA].EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(true).Times(1)
		result := svc.AuthenticateMultiFactor(s.ctx, models.MultiFactorRequest{
			Email:      knownEmail,
			Password:   knownSecret,
			Modalities: []biomodels.Modality{biomodels.ModalityHeartbeat, biomodels.ModalityDNA},
		})
		s.False(result.Success)
		s.Equal([]biomodels.Modality{biomodels.ModalityHeartbeat}, result.FailedFactors())
	})

	s.Contains(s.publisher.actions(), string(audit.EventMultiFactorCompleted))
}

func TestAuthenticateBiometric_Scenario(t *testing.T) {
	store, err := directory.NewInMemoryStore(directory.DefaultIdentity)
	require.NoError(t, err)
	cfg := verifier.Config{DNADelay: 10 * time.Millisecond, MaxSampleBytes: 1024}
	registry := verifier.NewDefaultRegistry(cfg, verifier.PolicyFunc(func() bool { return true }))
	svc := New(store, registry, linuxHost)
	ctx := context.Background()

	testutil.Given(t, "the default directory", func(t *testing.T) {
		testutil.When(t, "the correct secret is presented", func(t *testing.T) {
			testutil.Then(t, "access is granted", func(t *testing.T) {
				d := svc.AuthenticateCredentials(ctx, knownEmail, knownSecret)
				assert.Equal(t, models.AuthenticationDecision{Success: true}, d)
			})
		})
		testutil.When(t, "a wrong secret is presented", func(t *testing.T) {
			testutil.Then(t, "the generic message is returned", func(t *testing.T) {
				d := svc.AuthenticateCredentials(ctx, knownEmail, "wrong")
				assert.Equal(t, models.AuthenticationDecision{Success: false, Message: "Invalid email or password"}, d)
			})
		})
		testutil.When(t, "DNA is checked for an unknown subject", func(t *testing.T) {
			testutil.Then(t, "the subject is reported missing", func(t *testing.T) {
				r := svc.AuthenticateBiometric(ctx, biomodels.ModalityDNA, ghostEmail, biomodels.Sample{})
				assert.False(t, r.Success)
				assert.Equal(t, biomodels.ReasonUserNotFound, r.Reason)
			})
		})
	})
}

func TestAuthenticateBiometric_ConcurrentDNAChecksOverlap(t *testing.T) {
	const delay = 200 * time.Millisecond
	store, err := directory.NewInMemoryStore(directory.DefaultIdentity)
	require.NoError(t, err)
	registry := verifier.NewDefaultRegistry(
		verifier.Config{DNADelay: delay, MaxSampleBytes: 1024},
		verifier.PolicyFunc(func() bool { return true }),
	)
	svc := New(store, registry, linuxHost)

	start := time.Now()
	var wg sync.WaitGroup
	results := make([]biomodels.VerificationResult, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = svc.AuthenticateBiometric(context.Background(), biomodels.ModalityDNA, knownEmail, biomodels.Sample{})
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	for _, r := range results {
		assert.True(t, r.Success)
	}
	assert.GreaterOrEqual(t, elapsed, delay)
	assert.Less(t, elapsed, 2*delay-20*time.Millisecond)
}
