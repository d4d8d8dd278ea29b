// Package config provides application configuration management.
// It loads settings from environment variables (optionally from a .env file)
// and provides defaults for the server, data files and integrations.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/garyellow/attendance-go/internal/timeutil"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir       string // Directory for the SQLite database and CSV snapshot
	ClassroomFile string // YAML classroom file; missing file = built-in sample class
	CSVPath       string // Committed CSV snapshot (default: <DataDir>/attendance.csv)
	CSVBOM        bool   // Prefix written CSV files with a UTF-8 BOM
	Timezone      string // IANA zone used to resolve "today" (default: Asia/Seoul)

	// Summary Configuration
	Summary SummaryConfig

	// Metrics Authentication
	MetricsUsername string // Username for /metrics Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics Basic Auth (empty = no auth)

	// Sentry Configuration
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack Configuration
	BetterStackToken    string
	BetterStackEndpoint string

	// R2 Snapshot Configuration (S3-compatible)
	R2Endpoint        string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2SnapshotKey     string
}

// SummaryConfig decides how regular absentees are counted in summaries.
type SummaryConfig struct {
	CountRegularPresent  bool // Count a regular absentee marked present (default: false)
	IncludeRegularAbsent bool // Count rule-derived absences as absent (default: false)
	RateDecimals         int  // Decimals of the rendered rate, 0 or 1 (default: 1)
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	dataDir := getEnv(EnvDataDir, getDefaultDataDir())
	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir:       dataDir,
		ClassroomFile: getEnv(EnvClassroomFile, filepath.Join(dataDir, "classroom.yaml")),
		CSVPath:       getEnv(EnvCSVPath, filepath.Join(dataDir, "attendance.csv")),
		CSVBOM:        getBoolEnv(EnvCSVBOM, true),
		Timezone:      getEnv(EnvTimezone, "Asia/Seoul"),

		Summary: SummaryConfig{
			CountRegularPresent:  getBoolEnv(EnvCountRegularPresent, false),
			IncludeRegularAbsent: getBoolEnv(EnvIncludeRegularAbsent, false),
			RateDecimals:         getIntEnv(EnvRateDecimals, 1),
		},

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		R2Endpoint:        getEnv(EnvR2Endpoint, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2SnapshotKey:     getEnv(EnvR2SnapshotKey, "snapshots/attendance.csv.zst"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	} else if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("%s must be a port number, got %q", EnvPort, c.Port))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.CSVPath == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvCSVPath))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
	}
	if _, err := timeutil.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvTimezone, err))
	}
	if c.Summary.RateDecimals < 0 || c.Summary.RateDecimals > 1 {
		errs = append(errs, fmt.Errorf("%s must be 0 or 1, got %d", EnvRateDecimals, c.Summary.RateDecimals))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}
	if c.R2Enabled() && c.R2SnapshotKey == "" {
		errs = append(errs, fmt.Errorf("%s is required when R2 is configured", EnvR2SnapshotKey))
	}
	if c.r2Partial() {
		errs = append(errs, fmt.Errorf("R2 requires %s, %s, %s and %s together",
			EnvR2Endpoint, EnvR2AccessKeyID, EnvR2SecretAccessKey, EnvR2BucketName))
	}

	return errors.Join(errs...)
}

// R2Enabled reports whether snapshot upload is fully configured.
func (c *Config) R2Enabled() bool {
	return c.R2Endpoint != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

func (c *Config) r2Partial() bool {
	set := 0
	for _, v := range []string{c.R2Endpoint, c.R2AccessKeyID, c.R2SecretAccessKey, c.R2BucketName} {
		if v != "" {
			set++
		}
	}
	return set > 0 && set < 4
}

// SentryEnabled reports whether a Sentry DSN is configured.
func (c *Config) SentryEnabled() bool {
	return c.SentryDSN != ""
}

// BetterStackEnabled reports whether log shipping is configured.
func (c *Config) BetterStackEnabled() bool {
	return c.BetterStackToken != "" && c.BetterStackEndpoint != ""
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "attendance.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
