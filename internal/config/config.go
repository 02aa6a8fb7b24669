// Package config loads service settings from the environment, with an
// optional .env file, through koanf.
package config

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/ntak-rms/internal/catalog"
)

// Config holds every setting of the API and worker binaries. Keys are the
// environment variable names.
type Config struct {
	AppEnv             string   `koanf:"APP_ENV"`
	Port               string   `koanf:"PORT"`
	RedisURL           string   `koanf:"REDIS_URL"`
	CORSAllowedOrigins []string `koanf:"CORS_ALLOWED_ORIGINS"`

	NTAKBaseURL           string        `koanf:"NTAK_BASE_URL"`
	NTAKTaxNumber         string        `koanf:"NTAK_TAX_NUMBER"`
	NTAKRegNumber         string        `koanf:"NTAK_REG_NUMBER"`
	NTAKSoftwareRegNumber string        `koanf:"NTAK_SOFTWARE_REG_NUMBER"`
	NTAKSoftwareVersion   string        `koanf:"NTAK_SOFTWARE_VERSION"`
	NTAKCertPath          string        `koanf:"NTAK_CERT_PATH"`
	NTAKKeyPath           string        `koanf:"NTAK_KEY_PATH"`
	NTAKRequestTimeout    time.Duration `koanf:"NTAK_REQUEST_TIMEOUT"`

	DepositUnitPrice int64       `koanf:"DEPOSIT_UNIT_PRICE"`
	DepositVAT       catalog.VAT `koanf:"DEPOSIT_VAT"`

	RetryBase          time.Duration `koanf:"RETRY_BASE"`
	RetryMaxAttempts   int           `koanf:"RETRY_MAX_ATTEMPTS"`
	RetryJitterPercent float64       `koanf:"RETRY_JITTER_PERCENT"`
	// RetryJitter is RetryJitterPercent as a fraction.
	RetryJitter         float64       `koanf:"-"`
	CircuitMinRequests  int           `koanf:"CIRCUIT_MIN_REQUESTS"`
	CircuitFailureRatio float64       `koanf:"CIRCUIT_FAILURE_RATIO"`
	CircuitOpenFor      time.Duration `koanf:"CIRCUIT_OPEN_FOR"`

	SubmissionReplayTTL time.Duration `koanf:"SUBMISSION_REPLAY_TTL"`
	LockTTL             time.Duration `koanf:"LOCK_TTL"`
	LockRetryBackoff    time.Duration `koanf:"LOCK_RETRY_BACKOFF"`
	VerifyDelay         time.Duration `koanf:"VERIFY_DELAY"`
	VerifyMaxAttempts   int           `koanf:"VERIFY_MAX_ATTEMPTS"`
	QueueConcurrency    int           `koanf:"QUEUE_CONCURRENCY"`
	QueueMaxRetry       int           `koanf:"QUEUE_MAX_RETRY"`

	RateLimitPerMinute int   `koanf:"RATE_LIMIT_PER_MINUTE"`
	BodyLimitBytes     int64 `koanf:"BODY_LIMIT_BYTES"`

	Obs `koanf:",squash"`
}

// Obs groups logging, metrics, tracing and debug endpoint settings.
type Obs struct {
	LogFormat         string        `koanf:"OBS_LOG_FORMAT"`
	LogLevel          string        `koanf:"OBS_LOG_LEVEL"`
	MetricsEnabled    bool          `koanf:"OBS_ENABLE_PROMETHEUS"`
	MetricsNamespace  string        `koanf:"OBS_METRICS_NAMESPACE"`
	MetricsBucketsMS  string        `koanf:"OBS_METRICS_BUCKETS_MS"`
	WorkerMetricsAddr string        `koanf:"OBS_WORKER_METRICS_ADDR"`
	TracingEnabled    bool          `koanf:"OBS_ENABLE_TRACING"`
	TracingExporter   string        `koanf:"OBS_TRACING_EXPORTER"`
	OTLPEndpoint      string        `koanf:"OBS_OTLP_ENDPOINT"`
	TracingSampling   float64       `koanf:"OBS_TRACING_SAMPLING_RATIO"`
	PprofEnabled      bool          `koanf:"OBS_ENABLE_PPROF"`
	PprofUser         string        `koanf:"SECURE_PPROF_BASIC_AUTH_USER"`
	PprofPass         string        `koanf:"SECURE_PPROF_BASIC_AUTH_PASS"`
	TrustForwardProto bool          `koanf:"SECURE_TRUST_FORWARDED_PROTO"`
	ReadyRedisTimeout time.Duration `koanf:"HEALTH_READY_REDIS_TIMEOUT"`
}

var defaults = map[string]any{
	"APP_ENV":       "development",
	"PORT":          "8080",
	"NTAK_BASE_URL": "https://rms.tesztntak.hu",

	"NTAK_REQUEST_TIMEOUT": "10s",
	"DEPOSIT_UNIT_PRICE":   50,
	"DEPOSIT_VAT":          string(catalog.VAT0),

	"RETRY_BASE":            "200ms",
	"RETRY_MAX_ATTEMPTS":    3,
	"RETRY_JITTER_PERCENT":  20.0,
	"CIRCUIT_MIN_REQUESTS":  10,
	"CIRCUIT_FAILURE_RATIO": 0.5,
	"CIRCUIT_OPEN_FOR":      "30s",

	"SUBMISSION_REPLAY_TTL": "24h",
	"LOCK_TTL":              "30s",
	"LOCK_RETRY_BACKOFF":    "50ms",
	"VERIFY_DELAY":          "30s",
	"VERIFY_MAX_ATTEMPTS":   20,
	"QUEUE_CONCURRENCY":     4,
	"QUEUE_MAX_RETRY":       8,

	"RATE_LIMIT_PER_MINUTE": 120,
	"BODY_LIMIT_BYTES":      1 << 20,

	"OBS_LOG_FORMAT":             "json",
	"OBS_LOG_LEVEL":              "info",
	"OBS_ENABLE_PROMETHEUS":      true,
	"OBS_METRICS_NAMESPACE":      "ntak",
	"OBS_ENABLE_TRACING":         true,
	"OBS_TRACING_EXPORTER":       "otlp",
	"OBS_TRACING_SAMPLING_RATIO": 1.0,
	"HEALTH_READY_REDIS_TIMEOUT": "300ms",
}

// staticProvider feeds a fixed key/value map to koanf.
type staticProvider map[string]any

func (p staticProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: static provider has no raw bytes")
}

func (p staticProvider) Read() (map[string]any, error) { return maps.Clone(p), nil }

// Load layers defaults, then .env, then the process environment. Blank
// variables count as unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(staticProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		value = strings.TrimSpace(value)
		if value == "" {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitAndTrim(cfg.CORSAllowedOrigins)
	cfg.RetryJitter = cfg.RetryJitterPercent / 100

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	for _, req := range []struct{ key, value string }{
		{"REDIS_URL", c.RedisURL},
		{"NTAK_TAX_NUMBER", c.NTAKTaxNumber},
		{"NTAK_REG_NUMBER", c.NTAKRegNumber},
		{"NTAK_SOFTWARE_REG_NUMBER", c.NTAKSoftwareRegNumber},
		{"NTAK_SOFTWARE_VERSION", c.NTAKSoftwareVersion},
	} {
		if req.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", req.key))
		}
	}
	if !c.DepositVAT.Valid() {
		errs = append(errs, fmt.Errorf("DEPOSIT_VAT: unknown vat code %q", c.DepositVAT))
	}
	if c.DepositUnitPrice < 0 {
		errs = append(errs, errors.New("DEPOSIT_UNIT_PRICE cannot be negative"))
	}
	if c.CircuitFailureRatio <= 0 || c.CircuitFailureRatio > 1 {
		errs = append(errs, fmt.Errorf("CIRCUIT_FAILURE_RATIO must be in (0, 1], got %v", c.CircuitFailureRatio))
	}
	return errors.Join(errs...)
}

// HTTPAddr returns the listen address; PORT may be given with or without the
// leading colon.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	return ":" + strings.TrimPrefix(port, ":")
}

func splitAndTrim(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
