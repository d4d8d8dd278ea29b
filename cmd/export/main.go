// Package main provides an offline export tool for the attendance database.
//
// It writes the flat CSV of a stage, or the XLSX workbook of one day, and can
// import a committed CSV file into the final stage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/classroom"
	"github.com/garyellow/attendance-go/internal/config"
	"github.com/garyellow/attendance-go/internal/export"
	"github.com/garyellow/attendance-go/internal/logger"
	"github.com/garyellow/attendance-go/internal/storage"
	"github.com/garyellow/attendance-go/internal/timeutil"
	"github.com/garyellow/attendance-go/internal/view"
)

// CLI flags
var (
	stageFlag  = flag.String("stage", "final", "Stage to export (draft, final)")
	dateFlag   = flag.String("date", "", "Day to export (YYYY-MM-DD, today, yesterday); required for xlsx")
	formatFlag = flag.String("format", "csv", "Output format (csv, xlsx)")
	outFlag    = flag.String("out", "-", "Output file (- = stdout)")
	importFlag = flag.String("import", "", "Import a committed CSV file into the final stage instead of exporting")
)

type options struct {
	stage  attendance.Stage
	date   string
	format string
	out    string
	input  string
}

func (o options) validate() error {
	switch o.format {
	case "csv":
	case "xlsx":
		if o.date == "" && o.input == "" {
			return errors.New("xlsx export needs -date")
		}
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}
	return nil
}

func main() {
	flag.Parse()

	stage, err := attendance.ParseStage(*stageFlag)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Invalid -stage: %v\n", err)
		os.Exit(2)
	}
	opts := options{stage: stage, date: *dateFlag, format: *formatFlag, out: *outFlag, input: *importFlag}
	if err := opts.validate(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithWriter(cfg.LogLevel, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	err = run(ctx, cfg, opts, os.Stdout, log)
	cancel()
	if err != nil {
		log.WithError(err).Error("Export failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer, log *logger.Logger) error {
	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if opts.input != "" {
		table, err := export.LoadFile(opts.input)
		if err != nil {
			return err
		}
		if err := db.ReplaceStage(ctx, attendance.StageFinal, table.Records()); err != nil {
			return err
		}
		log.WithField("path", opts.input).WithField("records", table.Len()).Info("Final stage imported")
		return nil
	}

	class, _, err := classroom.LoadOrDefault(cfg.ClassroomFile)
	if err != nil {
		return fmt.Errorf("classroom: %w", err)
	}
	loc, err := timeutil.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	var (
		records []attendance.Record
		date    time.Time
	)
	if opts.date != "" {
		date, err = timeutil.ParseDay(opts.date, time.Now, loc)
		if err != nil {
			return err
		}
		records, err = db.ListRecordsByDate(ctx, opts.stage, date)
	} else {
		records, err = db.ListRecords(ctx, opts.stage)
	}
	if err != nil {
		return err
	}
	records = class.SortRecords(records)

	w := stdout
	if opts.out != "" && opts.out != "-" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.out, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	switch opts.format {
	case "xlsx":
		err = export.WriteXLSX(w, export.Workbook{
			Title:     fmt.Sprintf("%s %s", timeutil.DayLabel(date), opts.stage),
			Records:   records,
			Summaries: class.Summaries(date, records, summaryOptions(cfg)),
			Pivot:     view.Build(records, class.Roster, class.Periods),
		})
	default:
		err = export.WriteCSV(w, records, cfg.CSVBOM)
	}
	if err != nil {
		return err
	}
	log.WithFields(map[string]any{
		"stage":   opts.stage,
		"format":  opts.format,
		"records": len(records),
	}).Info("Export complete")
	return nil
}

func summaryOptions(cfg *config.Config) attendance.SummaryOptions {
	return attendance.SummaryOptions{
		CountRegularPresent:  cfg.Summary.CountRegularPresent,
		IncludeRegularAbsent: cfg.Summary.IncludeRegularAbsent,
		RateDecimals:         cfg.Summary.RateDecimals,
	}
}
