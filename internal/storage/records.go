package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garyellow/attendance-go/internal/attendance"
	domerrors "github.com/garyellow/attendance-go/internal/errors"
)

const upsertRecordQuery = `
	INSERT INTO attendance_records (stage, date, student, period, status, reason, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(stage, date, student, period) DO UPDATE SET
		status = excluded.status,
		reason = excluded.reason,
		updated_at = excluded.updated_at
`

const selectRecordColumns = `SELECT date, student, period, status, reason FROM attendance_records`

// SaveRecords upserts records into stage in a single transaction.
// A record whose slot already exists replaces it (last write wins).
func (db *DB) SaveRecords(ctx context.Context, stage attendance.Stage, records []attendance.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateStage(stage); err != nil {
		return err
	}

	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		return upsertRecords(ctx, tx, stage, records)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to save records",
			"stage", stage,
			"count", len(records),
			"error", err)
		return err
	}
	logSlow(ctx, "SaveRecords", start, "count", len(records))

	if db.metrics != nil {
		counts := make(map[attendance.Status]int)
		for _, r := range records {
			counts[r.Status]++
		}
		for status, n := range counts {
			db.metrics.RecordRecordsSaved(string(stage), string(status), n)
		}
	}
	return nil
}

func upsertRecords(ctx context.Context, tx *sql.Tx, stage attendance.Stage, records []attendance.Record) error {
	stmt, err := tx.PrepareContext(ctx, upsertRecordQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, r := range records {
		r = r.Normalize()
		if !r.Status.Valid() {
			return domerrors.NewValidationError("status", fmt.Sprintf("unknown status %q", r.Status))
		}
		if r.Student == "" || r.Period == "" {
			return domerrors.NewValidationError("record", "student and period are required")
		}
		if _, err := stmt.ExecContext(ctx, string(stage), attendance.FormatDate(r.Date), r.Student, r.Period, string(r.Status), r.Reason, now); err != nil {
			return fmt.Errorf("failed to save record %s/%s/%s: %w", attendance.FormatDate(r.Date), r.Student, r.Period, err)
		}
	}
	return nil
}

// GetRecord returns the record stored for key in stage, or nil if there is none.
func (db *DB) GetRecord(ctx context.Context, stage attendance.Stage, key attendance.Key) (*attendance.Record, error) {
	query := selectRecordColumns + ` WHERE stage = ? AND date = ? AND student = ? AND period = ?`
	row := db.reader.QueryRowContext(ctx, query, string(stage), key.Date, key.Student, key.Period)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &r, nil
}

// ListRecordsByDate returns the records of one date in insertion order.
func (db *DB) ListRecordsByDate(ctx context.Context, stage attendance.Stage, date time.Time) ([]attendance.Record, error) {
	query := selectRecordColumns + ` WHERE stage = ? AND date = ? ORDER BY rowid`
	return db.queryRecords(ctx, "ListRecordsByDate", query, string(stage), attendance.FormatDate(date))
}

// ListRecordsByStudent returns one student's records, oldest date first.
func (db *DB) ListRecordsByStudent(ctx context.Context, stage attendance.Stage, student string) ([]attendance.Record, error) {
	query := selectRecordColumns + ` WHERE stage = ? AND student = ? ORDER BY date, rowid`
	return db.queryRecords(ctx, "ListRecordsByStudent", query, string(stage), student)
}

// ListRecords returns every record of stage ordered by date, then insertion order.
func (db *DB) ListRecords(ctx context.Context, stage attendance.Stage) ([]attendance.Record, error) {
	query := selectRecordColumns + ` WHERE stage = ? ORDER BY date, rowid`
	return db.queryRecords(ctx, "ListRecords", query, string(stage))
}

// ListDates returns the distinct dates present in stage, oldest first.
func (db *DB) ListDates(ctx context.Context, stage attendance.Stage) ([]time.Time, error) {
	rows, err := db.reader.QueryContext(ctx, `SELECT DISTINCT date FROM attendance_records WHERE stage = ? ORDER BY date`, string(stage))
	if err != nil {
		return nil, fmt.Errorf("failed to list dates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dates []time.Time
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		d, err := attendance.ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// ReplaceStage deletes every record of stage and stores records in their place.
// Used when importing a CSV snapshot.
func (db *DB) ReplaceStage(ctx context.Context, stage attendance.Stage, records []attendance.Record) error {
	if err := validateStage(stage); err != nil {
		return err
	}
	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE stage = ?`, string(stage)); err != nil {
			return fmt.Errorf("failed to clear %s records: %w", stage, err)
		}
		return upsertRecords(ctx, tx, stage, records)
	})
	if err != nil {
		return err
	}
	logSlow(ctx, "ReplaceStage", start, "count", len(records))
	return nil
}

// Commit replaces the final records of date with the draft records of date,
// then clears that draft. It returns the number of committed records, or
// ErrEmptyDraft (leaving final untouched) when the date has no draft.
func (db *DB) Commit(ctx context.Context, date time.Time) (int, error) {
	day := attendance.FormatDate(date)
	start := time.Now()

	var committed int
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM attendance_records WHERE stage = 'draft' AND date = ?`, day,
		).Scan(&committed); err != nil {
			return fmt.Errorf("failed to count draft: %w", err)
		}
		if committed == 0 {
			return fmt.Errorf("commit %s: %w", day, domerrors.ErrEmptyDraft)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM attendance_records WHERE stage = 'final' AND date = ?`, day,
		); err != nil {
			return fmt.Errorf("failed to clear final: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records (stage, date, student, period, status, reason, updated_at)
			SELECT 'final', date, student, period, status, reason, ?
			FROM attendance_records WHERE stage = 'draft' AND date = ?
			ORDER BY rowid`, time.Now().Unix(), day,
		); err != nil {
			return fmt.Errorf("failed to copy draft to final: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM attendance_records WHERE stage = 'draft' AND date = ?`, day,
		); err != nil {
			return fmt.Errorf("failed to clear draft: %w", err)
		}
		return nil
	})

	result := "success"
	switch {
	case errors.Is(err, domerrors.ErrEmptyDraft):
		result = "empty"
	case err != nil:
		result = "error"
	}
	if db.metrics != nil {
		db.metrics.RecordCommit(result)
	}
	if err != nil {
		return 0, err
	}

	logSlow(ctx, "Commit", start, "date", day)
	slog.InfoContext(ctx, "draft committed",
		"date", day,
		"records", committed)
	return committed, nil
}

// DiscardDraft deletes the draft records of date and returns how many were removed.
func (db *DB) DiscardDraft(ctx context.Context, date time.Time) (int, error) {
	res, err := db.writer.ExecContext(ctx,
		`DELETE FROM attendance_records WHERE stage = 'draft' AND date = ?`, attendance.FormatDate(date))
	if err != nil {
		return 0, fmt.Errorf("failed to discard draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

// CountRecords returns the number of records in stage.
func (db *DB) CountRecords(ctx context.Context, stage attendance.Stage) (int, error) {
	var count int
	err := db.reader.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance_records WHERE stage = ?`, string(stage)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func (db *DB) queryRecords(ctx context.Context, operation, query string, args ...any) ([]attendance.Record, error) {
	start := time.Now()
	rows, err := db.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]attendance.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	logSlow(ctx, operation, start, "count", len(records))
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (attendance.Record, error) {
	var date, status string
	var r attendance.Record
	if err := s.Scan(&date, &r.Student, &r.Period, &status, &r.Reason); err != nil {
		return attendance.Record{}, err
	}
	d, err := attendance.ParseDate(date)
	if err != nil {
		return attendance.Record{}, err
	}
	r.Date = d
	r.Status = attendance.Status(status)
	return r, nil
}

func validateStage(stage attendance.Stage) error {
	if stage != attendance.StageDraft && stage != attendance.StageFinal {
		return domerrors.NewValidationError("stage", fmt.Sprintf("unknown stage %q", stage))
	}
	return nil
}
