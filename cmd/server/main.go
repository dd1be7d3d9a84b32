package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "biogate/internal/auth/handler"
	authmetrics "biogate/internal/auth/metrics"
	authservice "biogate/internal/auth/service"
	"biogate/internal/biometric/capability"
	"biogate/internal/biometric/verifier"
	"biogate/internal/directory"
	"biogate/internal/platform/config"
	"biogate/internal/platform/httpserver"
	kafkaclient "biogate/internal/platform/kafka"
	"biogate/internal/platform/logger"
	"biogate/internal/platform/middleware"
	redisclient "biogate/internal/platform/redis"
	audit "biogate/pkg/platform/audit"
	"biogate/pkg/platform/audit/publisher"
	kafkasink "biogate/pkg/platform/audit/publishers/kafka"
	auditmemory "biogate/pkg/platform/audit/store/memory"
	auditredis "biogate/pkg/platform/audit/store/redis"
	"biogate/pkg/platform/circuit"
)

// main wires dependencies, serves HTTP and shuts down on SIGINT/SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Detection completes before the listener opens.
	caps := capability.New(capability.WithLogger(log)).Detect()

	identities, err := directory.LoadSeed(cfg.Directory.File)
	if err != nil {
		return err
	}
	store, err := directory.NewInMemoryStore(identities...)
	if err != nil {
		return fmt.Errorf("build directory: %w", err)
	}

	metrics := authmetrics.New()
	registry := verifier.NewDefaultRegistry(
		verifierConfig(cfg.Biometric),
		verifier.NewRandomPolicy(cfg.Biometric.SuccessProbability),
		verifier.WithObserver(metrics),
		verifier.WithLogger(log),
	)

	auditPublisher, closeAudit, err := buildAuditPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	service := authservice.New(store, registry, caps,
		authservice.WithLogger(log),
		authservice.WithMetrics(metrics),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithSubjectCheck(cfg.Biometric.RequireSubject),
		authservice.WithReferenceMatch(cfg.Biometric.RequireReferenceMatch),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	authhandler.New(service, log).Register(r)
	r.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Server.Addr, r,
		httpserver.WithSlowestHandler(cfg.Biometric.SlowestVerification()),
	)
	logBanner(log, cfg, caps, store.Count())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func verifierConfig(b config.Biometric) verifier.Config {
	return verifier.Config{
		FingerprintNativeDelay:   b.FingerprintNativeDelay,
		FingerprintFallbackDelay: b.FingerprintFallbackDelay,
		HeartbeatDelay:           b.HeartbeatDelay,
		DNADelay:                 b.DNADelay,
		MaxSampleBytes:           b.MaxSampleBytes,
	}
}

// buildAuditPublisher picks Redis as the primary audit store when configured
// and fans out to Kafka when brokers are set. The returned func drains the
// publisher and closes its clients.
func buildAuditPublisher(ctx context.Context, cfg config.Config, log *slog.Logger) (*publisher.Publisher, func(), error) {
	var (
		store   audit.Store = auditmemory.NewInMemoryStore()
		sinks   []audit.Sink
		closers []func()
	)

	rc, err := redisclient.New(ctx, cfg.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	if rc != nil {
		store = auditredis.New(rc, cfg.Redis.AuditMaxLen)
		closers = append(closers, func() { _ = rc.Close() })
		log.Info("audit store: redis")
	}

	kc, err := kafkaclient.New(ctx, cfg.Kafka)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, nil, err
	}
	if kc != nil {
		sinks = append(sinks, kafkasink.NewSink(kc, cfg.Kafka.AuditTopic,
			kafkasink.WithBreaker(circuit.New("kafka-audit")),
		))
		closers = append(closers, kc.Close)
		log.Info("audit sink: kafka", "topic", cfg.Kafka.AuditTopic)
	}

	pub := publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(cfg.AuditQueue),
		publisher.WithSinks(sinks...),
		publisher.WithLogger(log),
	)
	return pub, func() {
		pub.Close()
		if dropped := pub.Dropped(); dropped > 0 {
			log.Warn("audit events dropped", "count", dropped)
		}
		for _, c := range closers {
			c()
		}
	}, nil
}

func logBanner(log *slog.Logger, cfg config.Config, caps capability.Capability, identities int) {
	log.Info("starting biogate",
		"addr", cfg.Server.Addr,
		"platform", caps.Platform,
		"os", caps.OS,
		"fingerprint_reader_available", caps.FingerprintHardwareAvailable,
		"identities", identities,
		"require_subject", cfg.Biometric.RequireSubject,
		"require_reference_match", cfg.Biometric.RequireReferenceMatch,
	)
	if cfg.Directory.File == "" {
		log.Info("default identity loaded", "email", directory.DefaultIdentity.Email)
	}
	log.Info("api endpoints",
		"endpoints", []string{
			"GET /api/health",
			"POST /api/validate-credentials",
			"POST /api/biometric/fingerprint",
			"POST /api/biometric/heartbeat",
			"POST /api/biometric/dna",
			"POST /api/authenticate",
			"GET /metrics",
		},
	)
}
