package verifier

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"biogate/internal/biometric/capability"
	"biogate/internal/biometric/models"
	"biogate/internal/biometric/verifier/mocks"
)

var (
	nativeHost   = capability.Capability{Platform: capability.PlatformWindows, OS: "windows", FingerprintHardwareAvailable: true}
	windowsNoHW  = capability.Capability{Platform: capability.PlatformWindows, OS: "windows"}
	linuxHost    = capability.Capability{Platform: capability.PlatformOther, OS: "linux"}
	alwaysPass   = PolicyFunc(func() bool { return true })
	alwaysReject = PolicyFunc(func() bool { return false })
)

// recordingSleeper captures requested delays without actually waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func (r *recordingSleeper) last() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delays[len(r.delays)-1]
}

type VerifierSuite struct {
	suite.Suite
	cfg     Config
	sleeper *recordingSleeper
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	s.cfg = Config{
		FingerprintNativeDelay:   40 * time.Millisecond,
		FingerprintFallbackDelay: 30 * time.Millisecond,
		HeartbeatDelay:           40 * time.Millisecond,
		DNADelay:                 60 * time.Millisecond,
		MaxSampleBytes:           128,
	}
	s.sleeper = &recordingSleeper{}
}

func (s *VerifierSuite) TestFingerprintPathSelection() {
	fp := NewFingerprint(s.cfg, alwaysPass, WithSleeper(s.sleeper.sleep))

	s.Run("native path when hardware is present on windows", func() {
		path, delay := fp.SelectPath(nativeHost)
		s.Equal(PathNative, path)
		s.Equal(s.cfg.FingerprintNativeDelay, delay)
	})

	s.Run("fallback path on windows without hardware", func() {
		path, delay := fp.SelectPath(windowsNoHW)
		s.Equal(PathFallback, path)
		s.Equal(s.cfg.FingerprintFallbackDelay, delay)
	})

	s.Run("fallback path off-platform", func() {
		path, _ := fp.SelectPath(linuxHost)
		s.Equal(PathFallback, path)
	})

	s.Run("both paths converge on the policy decision", func() {
		s.True(fp.Verify(context.Background(), models.Sample{}, nativeHost))
		s.Equal(s.cfg.FingerprintNativeDelay, s.sleeper.last())
		s.True(fp.Verify(context.Background(), models.Sample{}, linuxHost))
		s.Equal(s.cfg.FingerprintFallbackDelay, s.sleeper.last())

		rejecting := NewFingerprint(s.cfg, alwaysReject, WithSleeper(s.sleeper.sleep))
		s.False(rejecting.Verify(context.Background(), models.Sample{}, nativeHost))
		s.False(rejecting.Verify(context.Background(), models.Sample{}, linuxHost))
	})
}

func (s *VerifierSuite) TestModalityDelays() {
	hb := NewHeartbeat(s.cfg, alwaysPass, WithSleeper(s.sleeper.sleep))
	dna := NewDNA(s.cfg, alwaysPass, WithSleeper(s.sleeper.sleep))

	s.Equal(models.ModalityHeartbeat, hb.Modality())
	s.Equal(models.ModalityDNA, dna.Modality())

	s.True(hb.Verify(context.Background(), models.Sample{}, nativeHost))
	s.Equal(s.cfg.HeartbeatDelay, s.sleeper.last())

	s.True(dna.Verify(context.Background(), models.Sample{}, linuxHost))
	s.Equal(s.cfg.DNADelay, s.sleeper.last())
}

func (s *VerifierSuite) TestFailsClosed() {
	s.Run("malformed sample never reaches the policy", func() {
		var consulted atomic.Bool
		policy := PolicyFunc(func() bool { consulted.Store(true); return true })
		hb := NewHeartbeat(s.cfg, policy, WithSleeper(s.sleeper.sleep))

		ok := hb.Verify(context.Background(), models.Sample{Data: json.RawMessage(`{broken`)}, linuxHost)
		s.False(ok)
		s.False(consulted.Load())
	})

	s.Run("policy panic becomes a negative decision", func() {
		dna := NewDNA(s.cfg, PolicyFunc(func() bool { panic("analyzer fault") }), WithSleeper(s.sleeper.sleep))
		s.NotPanics(func() {
			s.False(dna.Verify(context.Background(), models.Sample{}, linuxHost))
		})
	})

	s.Run("cancelled context becomes a negative decision", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		dna := NewDNA(s.cfg, alwaysPass)

		start := time.Now()
		s.False(dna.Verify(ctx, models.Sample{}, linuxHost))
		s.Less(time.Since(start), s.cfg.DNADelay)
	})
}

func (s *VerifierSuite) TestObserverReceivesPathAndOutcome() {
	ctrl := gomock.NewController(s.T())
	obs := mocks.NewMockObserver(ctrl)
	obs.EXPECT().ObserveVerification("fingerprint", "native", gomock.Any(), true).Times(1)
	obs.EXPECT().ObserveVerification("fingerprint", "fallback", gomock.Any(), false).Times(1)

	pass := NewFingerprint(s.cfg, alwaysPass, WithSleeper(s.sleeper.sleep), WithObserver(obs))
	fail := NewFingerprint(s.cfg, alwaysReject, WithSleeper(s.sleeper.sleep), WithObserver(obs))

	s.True(pass.Verify(context.Background(), models.Sample{}, nativeHost))
	s.False(fail.Verify(context.Background(), models.Sample{}, linuxHost))
}

func TestRandomPolicy(t *testing.T) {
	t.Run("independent draws land near the configured rate", func(t *testing.T) {
		p := NewRandomPolicy(0.9)
		const n = 1000
		passed := 0
		for range n {
			if p.Decide() {
				passed++
			}
		}
		rate := float64(passed) / n
		assert.InDelta(t, 0.9, rate, 0.05, "observed success rate %.3f", rate)
	})

	t.Run("threshold compares against the failure band", func(t *testing.T) {
		draws := []float64{0.05, 0.1, 0.5, 0.99}
		i := 0
		p := NewRandomPolicyWithSource(0.9, func() float64 { d := draws[i]; i++; return d })

		assert.False(t, p.Decide())
		assert.True(t, p.Decide())
		assert.True(t, p.Decide())
		assert.True(t, p.Decide())
	})

	t.Run("probability is clamped", func(t *testing.T) {
		assert.True(t, NewRandomPolicyWithSource(7, func() float64 { return 0 }).Decide())
		assert.False(t, NewRandomPolicyWithSource(-1, func() float64 { return 0.999 }).Decide())
	})
}

func TestSleep(t *testing.T) {
	t.Run("waits for the delay", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("returns early on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		start := time.Now()
		err := Sleep(ctx, time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("zero delay still reports cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
	})
}

func TestConcurrentVerificationsOverlap(t *testing.T) {
	const delay = 200 * time.Millisecond
	dna := NewDNA(Config{DNADelay: delay}, alwaysPass)

	var wg sync.WaitGroup
	start := time.Now()
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, dna.Verify(context.Background(), models.Sample{}, linuxHost))
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, delay)
	assert.Less(t, elapsed, 2*delay, "verifications serialized: took %s", elapsed)
}

func TestRegistry(t *testing.T) {
	t.Run("default registry covers all modalities in flow order", func(t *testing.T) {
		r := NewDefaultRegistry(DefaultConfig(), alwaysPass)
		assert.Equal(t, models.AllModalities, r.Modalities())
		for _, m := range models.AllModalities {
			v, ok := r.Get(m)
			require.True(t, ok)
			assert.Equal(t, m, v.Modality())
		}
	})

	t.Run("duplicate modality is rejected", func(t *testing.T) {
		_, err := NewRegistry(NewDNA(DefaultConfig(), alwaysPass), NewDNA(DefaultConfig(), alwaysPass))
		assert.Error(t, err)
	})

	t.Run("unknown modality is absent", func(t *testing.T) {
		r, err := NewRegistry(NewHeartbeat(DefaultConfig(), alwaysPass))
		require.NoError(t, err)
		_, ok := r.Get(models.ModalityDNA)
		assert.False(t, ok)
	})
}
