// Package config provides centralized timeout constants for the application.
//
// Requests are small JSON bodies against a local SQLite database, so the
// HTTP timeouts are short. Commit publishing may upload to object storage and
// gets its own budget.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPReadHeader bounds the time to read request headers.
	HTTPReadHeader = 5 * time.Second

	// HTTPRead is the server read timeout; request bodies are a day's marks at most.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the server write timeout. It covers XLSX rendering and
	// RequestProcessing.
	HTTPWrite = 45 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Request timeouts
const (
	// RequestProcessing is the budget of a single API request.
	RequestProcessing = 30 * time.Second

	// SnapshotPublish bounds writing the committed CSV locally and uploading it.
	// It runs on a context detached from the request so a client disconnect
	// does not abort an upload halfway.
	SnapshotPublish = 20 * time.Second

	// ReadinessCheck bounds the database probe of /readyz.
	ReadinessCheck = 2 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
