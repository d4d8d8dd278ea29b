package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// DB wraps the SQLite database with a single-connection writer and a reader pool.
// SQLite allows one writer at a time; funnelling writes through one connection
// avoids SQLITE_BUSY under concurrent requests.
type DB struct {
	writer  *sql.DB
	reader  *sql.DB
	path    string
	metrics MetricsRecorder
}

// MetricsRecorder receives storage-level events.
type MetricsRecorder interface {
	RecordRecordsSaved(stage, status string, count int)
	RecordCommit(result string)
}

// slowQueryThreshold is the duration above which an operation is logged as slow.
const slowQueryThreshold = 100 * time.Millisecond

// New opens (or creates) the database at dbPath and initializes the schema.
// ":memory:" opens a private in-memory database backed by one connection.
func New(ctx context.Context, dbPath string) (*DB, error) {
	memory := dbPath == ":memory:"
	if !memory {
		dir := filepath.Dir(dbPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	writer, err := openConn(ctx, dbPath, 1)
	if err != nil {
		return nil, err
	}

	reader := writer
	if !memory {
		reader, err = openConn(ctx, dbPath, 4)
		if err != nil {
			_ = writer.Close()
			return nil, err
		}
	}

	db := &DB{writer: writer, reader: reader, path: dbPath}
	if err := InitSchema(ctx, writer); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func openConn(ctx context.Context, dbPath string, maxOpen int) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxOpen)
	conn.SetConnMaxLifetime(time.Hour)

	if err := configureConnection(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

func configureConnection(ctx context.Context, conn *sql.DB) error {
	pragmas := []struct {
		stmt string
		desc string
	}{
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
		{"PRAGMA foreign_keys=ON", "enable foreign keys"},
		{"PRAGMA synchronous=NORMAL", "set synchronous mode"},
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p.stmt); err != nil {
			return fmt.Errorf("failed to %s: %w", p.desc, err)
		}
	}
	return nil
}

// NewTestDB creates an in-memory database for tests.
func NewTestDB() (*DB, error) {
	return New(context.Background(), ":memory:")
}

// Close closes both connection pools.
func (db *DB) Close() error {
	var err error
	if db.reader != nil && db.reader != db.writer {
		err = db.reader.Close()
	}
	if db.writer != nil {
		if werr := db.writer.Close(); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Ping verifies both pools can reach the database.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if err := db.reader.PingContext(ctx); err != nil {
		return fmt.Errorf("ping reader: %w", err)
	}
	return nil
}

// SetMetrics sets the metrics recorder. A nil recorder disables recording.
func (db *DB) SetMetrics(recorder MetricsRecorder) {
	db.metrics = recorder
}

// withTx runs fn inside a write transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// logSlow warns when an operation exceeded slowQueryThreshold.
func logSlow(ctx context.Context, operation string, start time.Time, attrs ...any) {
	duration := time.Since(start)
	if duration <= slowQueryThreshold {
		return
	}
	args := append([]any{"operation", operation, "duration_ms", duration.Milliseconds()}, attrs...)
	slog.WarnContext(ctx, "slow database operation", args...)
}
