// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "ATTENDANCE_PORT"
	EnvLogLevel        = "ATTENDANCE_LOG_LEVEL"
	EnvShutdownTimeout = "ATTENDANCE_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir       = "ATTENDANCE_DATA_DIR"
	EnvClassroomFile = "ATTENDANCE_CLASSROOM_FILE"
	EnvCSVPath       = "ATTENDANCE_CSV_PATH"
	EnvCSVBOM        = "ATTENDANCE_CSV_BOM"
	EnvTimezone      = "ATTENDANCE_TIMEZONE"

	// Summary
	EnvCountRegularPresent  = "ATTENDANCE_COUNT_REGULAR_PRESENT"
	EnvIncludeRegularAbsent = "ATTENDANCE_INCLUDE_REGULAR_ABSENT"
	EnvRateDecimals         = "ATTENDANCE_RATE_DECIMALS"

	// Metrics Auth Feature
	EnvMetricsUsername = "ATTENDANCE_METRICS_USERNAME"
	EnvMetricsPassword = "ATTENDANCE_METRICS_PASSWORD"

	// Sentry Feature
	EnvSentryDSN         = "ATTENDANCE_SENTRY_DSN"
	EnvSentryEnvironment = "ATTENDANCE_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "ATTENDANCE_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "ATTENDANCE_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "ATTENDANCE_BETTERSTACK_ENDPOINT"

	// R2 Snapshot Feature
	EnvR2Endpoint        = "ATTENDANCE_R2_ENDPOINT"
	EnvR2AccessKeyID     = "ATTENDANCE_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "ATTENDANCE_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "ATTENDANCE_R2_BUCKET"
	EnvR2SnapshotKey     = "ATTENDANCE_R2_SNAPSHOT_KEY"
)
