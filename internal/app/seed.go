package app

import (
	"context"
	"fmt"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/export"
)

// seedFinal fills an empty final stage from the committed CSV file, restoring
// the file from object storage first when it is missing locally.
func (a *Application) seedFinal(ctx context.Context) error {
	if a.publisher != nil {
		restored, err := a.publisher.Restore(ctx)
		if err != nil {
			// The local database may still hold everything; keep starting.
			a.logger.WithError(err).Warn("Snapshot restore failed")
		} else if restored {
			a.logger.WithField("path", a.cfg.CSVPath).Info("Snapshot restored from R2")
		}
	}

	count, err := a.store.CountRecords(ctx, attendance.StageFinal)
	if err != nil {
		return fmt.Errorf("count final records: %w", err)
	}
	if count > 0 {
		return nil
	}

	table, err := export.LoadFile(a.cfg.CSVPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", a.cfg.CSVPath, err)
	}
	if table.Len() == 0 {
		return nil
	}
	if err := a.store.ReplaceStage(ctx, attendance.StageFinal, table.Records()); err != nil {
		return fmt.Errorf("import final records: %w", err)
	}
	a.logger.WithField("path", a.cfg.CSVPath).
		WithField("records", table.Len()).
		Info("Final records imported from CSV")
	return nil
}
