// Package config loads riskflow configuration: built-in defaults, then an
// optional YAML file, then RISKFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	platformstrings "riskflow/pkg/platform/strings"
)

// Trace store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendLog      = "log"
	BackendKafka    = "kafka"
)

const defaultJWTSigningKey = "dev-secret-key-change-in-production"

// Config is the full service configuration.
type Config struct {
	Server     Server                        `yaml:"server"`
	Logging    Logging                       `yaml:"logging"`
	TraceStore TraceStore                    `yaml:"trace_store"`
	Audit      Audit                         `yaml:"audit"`
	Review     Review                        `yaml:"review"`
	Redis      RedisConfig                   `yaml:"redis"`
	Postgres   PostgresConfig                `yaml:"postgres"`
	RateLimit  RateLimit                     `yaml:"rate_limit"`
	Workflows  map[string]map[string]float64 `yaml:"workflows"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	JWTAudience     string        `yaml:"jwt_audience"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// TraceStore selects where execution traces are written.
type TraceStore struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	// FallbackDir receives traces while a redis or postgres backend is down.
	FallbackDir string `yaml:"fallback_dir"`
}

type Audit struct {
	Backend string `yaml:"backend"`
}

// Review selects how human review requests leave the service.
type Review struct {
	Backend    string   `yaml:"backend"`
	Brokers    []string `yaml:"brokers"`
	Topic      string   `yaml:"topic"`
	Partitions int32    `yaml:"partitions"`
}

// RateLimit bounds case submissions per caller. Backend is memory or redis.
type RateLimit struct {
	Enabled           bool          `yaml:"enabled"`
	Backend           string        `yaml:"backend"`
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
}

// RedisConfig holds connection settings for the redis trace store.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig is shared by the postgres trace and audit stores.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

// Default returns a configuration that runs entirely in process.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			JWTSigningKey:   defaultJWTSigningKey,
			JWTIssuer:       "riskflow",
			JWTAudience:     "riskflow-api",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging:    Logging{Level: "info"},
		TraceStore: TraceStore{Backend: BackendFile, Dir: "traces"},
		Audit:      Audit{Backend: BackendMemory},
		Review:     Review{Backend: BackendLog, Topic: "riskflow.review-requests", Partitions: 3},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres:  PostgresConfig{MaxConns: 10},
		RateLimit: RateLimit{Enabled: true, Backend: BackendMemory, RequestsPerWindow: 120, Window: time.Minute},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("RISKFLOW_ADDR", &cfg.Server.Addr)
	str("RISKFLOW_JWT_SIGNING_KEY", &cfg.Server.JWTSigningKey)
	str("RISKFLOW_JWT_ISSUER", &cfg.Server.JWTIssuer)
	str("RISKFLOW_JWT_AUDIENCE", &cfg.Server.JWTAudience)
	str("RISKFLOW_LOG_LEVEL", &cfg.Logging.Level)
	str("RISKFLOW_TRACE_BACKEND", &cfg.TraceStore.Backend)
	str("RISKFLOW_TRACE_DIR", &cfg.TraceStore.Dir)
	str("RISKFLOW_TRACE_FALLBACK_DIR", &cfg.TraceStore.FallbackDir)
	str("RISKFLOW_AUDIT_BACKEND", &cfg.Audit.Backend)
	str("RISKFLOW_REVIEW_BACKEND", &cfg.Review.Backend)
	str("RISKFLOW_REVIEW_TOPIC", &cfg.Review.Topic)
	str("RISKFLOW_REDIS_URL", &cfg.Redis.URL)
	str("RISKFLOW_POSTGRES_DSN", &cfg.Postgres.DSN)
	str("RISKFLOW_RATE_LIMIT_BACKEND", &cfg.RateLimit.Backend)

	if v, ok := lookup("RISKFLOW_RATE_LIMIT_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RISKFLOW_RATE_LIMIT_ENABLED: %w", err)
		}
		cfg.RateLimit.Enabled = b
	}

	if v, ok := lookup("RISKFLOW_KAFKA_BROKERS"); ok && v != "" {
		cfg.Review.Brokers = platformstrings.SplitList(v)
	}
	if v, ok := lookup("RISKFLOW_SHUTDOWN_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RISKFLOW_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	if v, ok := lookup("RISKFLOW_REDIS_POOL_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RISKFLOW_REDIS_POOL_SIZE: %w", err)
		}
		cfg.Redis.PoolSize = n
	}
	return nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.JWTSigningKey == "" {
		errs = append(errs, errors.New("server.jwt_signing_key is required"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	switch c.TraceStore.Backend {
	case BackendMemory:
	case BackendFile:
		if c.TraceStore.Dir == "" {
			errs = append(errs, errors.New("trace_store.dir is required for the file backend"))
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis trace backend"))
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres trace backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("trace_store.backend %q is not supported", c.TraceStore.Backend))
	}

	switch c.Audit.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres audit backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("audit.backend %q is not supported", c.Audit.Backend))
	}

	switch c.Review.Backend {
	case BackendLog:
	case BackendKafka:
		if len(c.Review.Brokers) == 0 {
			errs = append(errs, errors.New("review.brokers is required for the kafka review backend"))
		}
		if c.Review.Topic == "" {
			errs = append(errs, errors.New("review.topic is required for the kafka review backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("review.backend %q is not supported", c.Review.Backend))
	}

	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case BackendMemory:
		case BackendRedis:
			if c.Redis.URL == "" {
				errs = append(errs, errors.New("redis.url is required for the redis rate limit backend"))
			}
		default:
			errs = append(errs, fmt.Errorf("rate_limit.backend %q is not supported", c.RateLimit.Backend))
		}
		if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("rate_limit.requests_per_window and rate_limit.window must be positive"))
		}
	}

	for name, weights := range c.Workflows {
		for signalType, w := range weights {
			if w < 0 {
				errs = append(errs, fmt.Errorf("workflows.%s.%s: weight must not be negative", name, signalType))
			}
		}
	}
	return errors.Join(errs...)
}

// UsingDefaultSigningKey reports whether the development signing key is in use.
func (c Config) UsingDefaultSigningKey() bool {
	return c.Server.JWTSigningKey == defaultJWTSigningKey
}
