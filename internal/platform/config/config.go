package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, parsed once at startup.
type Config struct {
	Server     Server
	Log        Log
	Biometric  Biometric
	Directory  Directory
	Redis      RedisConfig
	Kafka      KafkaConfig
	AuditQueue int `env:"BIOGATE_AUDIT_BUFFER" envDefault:"1024"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"BIOGATE_ADDR"             envDefault:":5000"`
	CORSOrigins     []string      `env:"BIOGATE_CORS_ORIGINS"     envDefault:"*" envSeparator:","`
	ShutdownTimeout time.Duration `env:"BIOGATE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Log selects the slog handler and level.
type Log struct {
	Level  string `env:"BIOGATE_LOG_LEVEL"  envDefault:"info"`
	Format string `env:"BIOGATE_LOG_FORMAT" envDefault:"json"`
}

// Biometric tunes the simulated verifiers and the identity gating policy.
type Biometric struct {
	FingerprintNativeDelay   time.Duration `env:"BIOGATE_FINGERPRINT_NATIVE_DELAY"   envDefault:"2s"`
	FingerprintFallbackDelay time.Duration `env:"BIOGATE_FINGERPRINT_FALLBACK_DELAY" envDefault:"2s"`
	HeartbeatDelay           time.Duration `env:"BIOGATE_HEARTBEAT_DELAY"            envDefault:"2s"`
	DNADelay                 time.Duration `env:"BIOGATE_DNA_DELAY"                  envDefault:"3s"`
	SuccessProbability       float64       `env:"BIOGATE_SUCCESS_PROBABILITY"        envDefault:"0.9"`
	MaxSampleBytes           int           `env:"BIOGATE_MAX_SAMPLE_BYTES"           envDefault:"65536"`
	RequireSubject           bool          `env:"BIOGATE_REQUIRE_SUBJECT"            envDefault:"true"`
	RequireReferenceMatch    bool          `env:"BIOGATE_REQUIRE_REFERENCE_MATCH"    envDefault:"false"`
}

// SlowestVerification is the longest single simulated sensor delay. Multi-factor
// checks run concurrently, so it also bounds a full multi-factor request.
func (b Biometric) SlowestVerification() time.Duration {
	return max(b.FingerprintNativeDelay, b.FingerprintFallbackDelay, b.HeartbeatDelay, b.DNADelay)
}

// Directory points at an optional YAML seed replacing the default identity.
type Directory struct {
	File string `env:"BIOGATE_DIRECTORY_FILE"`
}

// RedisConfig enables the Redis audit store when URL is set.
type RedisConfig struct {
	URL          string        `env:"BIOGATE_REDIS_URL"`
	PoolSize     int           `env:"BIOGATE_REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"BIOGATE_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"BIOGATE_REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"BIOGATE_REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"BIOGATE_REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
	AuditMaxLen  int64         `env:"BIOGATE_REDIS_AUDIT_MAX_LEN"  envDefault:"10000"`
}

// KafkaConfig enables the Kafka audit publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string `env:"BIOGATE_KAFKA_BROKERS"     envSeparator:","`
	AuditTopic string   `env:"BIOGATE_KAFKA_AUDIT_TOPIC" envDefault:"biogate.audit"`
	ClientID   string   `env:"BIOGATE_KAFKA_CLIENT_ID"   envDefault:"biogate"`
}

// FromEnv parses the process environment into a Config.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	b := c.Biometric
	if b.SuccessProbability < 0 || b.SuccessProbability > 1 {
		return fmt.Errorf("BIOGATE_SUCCESS_PROBABILITY must be within [0,1], got %v", b.SuccessProbability)
	}
	if b.FingerprintNativeDelay < 0 || b.FingerprintFallbackDelay < 0 || b.HeartbeatDelay < 0 || b.DNADelay < 0 {
		return fmt.Errorf("verification delays must not be negative")
	}
	if b.FingerprintFallbackDelay > b.FingerprintNativeDelay {
		return fmt.Errorf("fingerprint fallback delay (%s) must not exceed native delay (%s)",
			b.FingerprintFallbackDelay, b.FingerprintNativeDelay)
	}
	if b.MaxSampleBytes <= 0 {
		return fmt.Errorf("BIOGATE_MAX_SAMPLE_BYTES must be positive")
	}
	if c.AuditQueue <= 0 {
		return fmt.Errorf("BIOGATE_AUDIT_BUFFER must be positive")
	}
	return nil
}
