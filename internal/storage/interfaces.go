// Package storage persists attendance records in SQLite.
//
// Records live in two stages: draft (editable staging written on every save)
// and final (the committed snapshot). Commit moves one date from draft to final.
package storage

import (
	"context"
	"time"

	"github.com/garyellow/attendance-go/internal/attendance"
)

// RecordRepository defines the attendance record operations.
// Consumers depend on this interface so tests can substitute an in-memory database.
type RecordRepository interface {
	SaveRecords(ctx context.Context, stage attendance.Stage, records []attendance.Record) error
	GetRecord(ctx context.Context, stage attendance.Stage, key attendance.Key) (*attendance.Record, error)
	ListRecordsByDate(ctx context.Context, stage attendance.Stage, date time.Time) ([]attendance.Record, error)
	ListRecordsByStudent(ctx context.Context, stage attendance.Stage, student string) ([]attendance.Record, error)
	ListRecords(ctx context.Context, stage attendance.Stage) ([]attendance.Record, error)
	ListDates(ctx context.Context, stage attendance.Stage) ([]time.Time, error)
	ReplaceStage(ctx context.Context, stage attendance.Stage, records []attendance.Record) error
	Commit(ctx context.Context, date time.Time) (int, error)
	DiscardDraft(ctx context.Context, date time.Time) (int, error)
	CountRecords(ctx context.Context, stage attendance.Stage) (int, error)
}

// Compile-time check that *DB implements RecordRepository.
var _ RecordRepository = (*DB)(nil)
