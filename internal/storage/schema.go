package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all tables and indexes.
// Note: connection pragmas are applied in db.go's configureConnection.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return createAttendanceRecordsTable(ctx, db)
}

// attendance_records holds both stages; (stage, date, student, period) is the slot key.
func createAttendanceRecordsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS attendance_records (
		stage TEXT CHECK(stage IN ('draft', 'final')) NOT NULL,
		date TEXT NOT NULL,
		student TEXT NOT NULL,
		period TEXT NOT NULL,
		status TEXT CHECK(status IN ('present', 'absent', 'late', 'early_leave')) NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (stage, date, student, period)
	);
	CREATE INDEX IF NOT EXISTS idx_attendance_records_stage_date ON attendance_records(stage, date);
	CREATE INDEX IF NOT EXISTS idx_attendance_records_student ON attendance_records(student);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create attendance_records table: %w", err)
	}
	return nil
}
