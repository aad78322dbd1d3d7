package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/anime-shed/body-measure-go/internal/analyzer"
	"github.com/anime-shed/body-measure-go/internal/convergence"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	SessionIdleTimeout time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int

	// Calibration
	CalibrationPreset         string
	FocalLengthPx             float64
	RealInterocularCm         float64
	ShoulderScale             float64
	MinVisibility             float64
	ClassificationToleranceCm float64
	MaxWorkers                int

	// Convergence
	LockMode             string
	StabilityToleranceCm float64
	StabilityWindow      int
	StabilityMinSamples  int
	StabilityQuantumCm   float64
	HoldDuration         time.Duration
	RepeatLabelThreshold int
	LockOffsetCm         float64
	FixedLockAfter       time.Duration

	// Size chart source
	ChartSource       string
	ChartLocation     string
	ChartFetchTimeout time.Duration
	AzureAccount      string
	AzureKey          string

	// Persistence
	ResultStore string
	SQLitePath  string

	// Logging
	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AnalyzerOptions returns the extractor calibration.
func (c *Config) AnalyzerOptions() analyzer.Options {
	return analyzer.DefaultOptions().
		WithCalibration(c.FocalLengthPx, c.RealInterocularCm).
		WithShoulderScale(c.ShoulderScale).
		WithMinVisibility(c.MinVisibility).
		WithTolerance(c.ClassificationToleranceCm).
		WithMaxWorkers(c.MaxWorkers)
}

// ConvergenceConfig returns the lock policy parameters.
func (c *Config) ConvergenceConfig() convergence.Config {
	cfg := convergence.DefaultConfig()
	cfg.Mode = convergence.LockMode(c.LockMode)
	cfg.WindowCapacity = c.StabilityWindow
	cfg.MinSamples = c.StabilityMinSamples
	cfg.QuantumCm = c.StabilityQuantumCm
	cfg.StabilityToleranceCm = c.StabilityToleranceCm
	cfg.HoldDuration = c.HoldDuration
	cfg.RepeatThreshold = c.RepeatLabelThreshold
	cfg.LockOffsetCm = c.LockOffsetCm
	cfg.ClassificationToleranceCm = c.ClassificationToleranceCm
	cfg.FixedLockAfter = c.FixedLockAfter
	return cfg
}

// LoadFromEnv reads the configuration from the environment. A .env file in
// the working directory is loaded first when present.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// Individual calibration variables override the preset.
	preset := strings.ToLower(getEnvOrDefault("CALIBRATION_PRESET", "default"))
	opts, err := analyzer.PresetOptions(preset)
	if err != nil {
		return nil, err
	}
	conv := convergence.DefaultConfig()

	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 1024*1024), // 1MB
		SessionIdleTimeout: parseDurationOrDefault("SESSION_IDLE_TIMEOUT", 10*time.Minute),
		RateLimitRPS:       parseFloatOrDefault("RATE_LIMIT_RPS", 60),
		RateLimitBurst:     int(parseIntOrDefault("RATE_LIMIT_BURST", 120)),

		CalibrationPreset:         preset,
		FocalLengthPx:             parseFloatOrDefault("FOCAL_LENGTH_PX", opts.FocalLengthPx),
		RealInterocularCm:         parseFloatOrDefault("REAL_INTEROCULAR_CM", opts.RealInterocularCm),
		ShoulderScale:             parseFloatOrDefault("SHOULDER_SCALE", opts.ShoulderScale),
		MinVisibility:             parseFloatOrDefault("MIN_VISIBILITY", opts.MinVisibility),
		ClassificationToleranceCm: parseFloatOrDefault("CLASSIFY_TOLERANCE_CM", opts.ClassificationToleranceCm),
		MaxWorkers:                int(parseIntOrDefault("MAX_WORKERS", int64(opts.MaxWorkers))),

		LockMode:             strings.ToLower(getEnvOrDefault("LOCK_MODE", string(conv.Mode))),
		StabilityToleranceCm: parseFloatOrDefault("STABILITY_TOLERANCE_CM", conv.StabilityToleranceCm),
		StabilityWindow:      int(parseIntOrDefault("STABILITY_WINDOW", int64(conv.WindowCapacity))),
		StabilityMinSamples:  int(parseIntOrDefault("STABILITY_MIN_SAMPLES", int64(conv.MinSamples))),
		StabilityQuantumCm:   parseFloatOrDefault("STABILITY_QUANTUM_CM", conv.QuantumCm),
		HoldDuration:         parseDurationOrDefault("HOLD_DURATION", conv.HoldDuration),
		RepeatLabelThreshold: int(parseIntOrDefault("REPEAT_LABEL_THRESHOLD", int64(conv.RepeatThreshold))),
		LockOffsetCm:         parseFloatOrDefault("LOCK_OFFSET_CM", conv.LockOffsetCm),
		FixedLockAfter:       parseDurationOrDefault("FIXED_LOCK_AFTER", conv.FixedLockAfter),

		ChartSource:       strings.ToLower(getEnvOrDefault("SIZE_CHART_SOURCE", "builtin")),
		ChartLocation:     getEnvOrDefault("SIZE_CHART_LOCATION", ""),
		ChartFetchTimeout: parseDurationOrDefault("SIZE_CHART_FETCH_TIMEOUT", 15*time.Second),
		AzureAccount:      getEnvOrDefault("AZURE_STORAGE_ACCOUNT", ""),
		AzureKey:          getEnvOrDefault("AZURE_STORAGE_KEY", ""),

		ResultStore: strings.ToLower(getEnvOrDefault("RESULT_STORE", "memory")),
		SQLitePath:  getEnvOrDefault("SQLITE_PATH", "results.db"),

		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "json"),
		LogFile:       getEnvOrDefault("LOG_FILE", ""),
		LogMaxSizeMB:  int(parseIntOrDefault("LOG_MAX_SIZE_MB", 100)),
		LogMaxBackups: int(parseIntOrDefault("LOG_MAX_BACKUPS", 3)),
		LogMaxAgeDays: int(parseIntOrDefault("LOG_MAX_AGE_DAYS", 28)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field consistency.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.SessionIdleTimeout <= 0 || c.ChartFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, idle=%s, fetch=%s)",
			c.RequestTimeout, c.SessionIdleTimeout, c.ChartFetchTimeout)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit must be > 0 (got rps=%v, burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}
	if err := c.AnalyzerOptions().Validate(); err != nil {
		return fmt.Errorf("invalid calibration: %w", err)
	}
	if err := c.ConvergenceConfig().Validate(); err != nil {
		return fmt.Errorf("invalid convergence settings: %w", err)
	}
	switch c.ChartSource {
	case "builtin":
	case "http", "azure", "local":
		if c.ChartLocation == "" {
			return fmt.Errorf("SIZE_CHART_LOCATION is required for source %q", c.ChartSource)
		}
	default:
		return fmt.Errorf("invalid SIZE_CHART_SOURCE: %q", c.ChartSource)
	}
	switch c.ResultStore {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for sqlite result store")
		}
	default:
		return fmt.Errorf("invalid RESULT_STORE: %q", c.ResultStore)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
