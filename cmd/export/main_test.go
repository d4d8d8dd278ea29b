package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/config"
	"github.com/garyellow/attendance-go/internal/export"
	"github.com/garyellow/attendance-go/internal/logger"
)

func TestOptionsValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		opts    options
		wantErr bool
	}{
		{"csv without date", options{format: "csv"}, false},
		{"xlsx with date", options{format: "xlsx", date: "2024-03-06"}, false},
		{"xlsx without date", options{format: "xlsx"}, true},
		{"import ignores date", options{format: "xlsx", input: "a.csv"}, false},
		{"unknown format", options{format: "pdf"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRun_ImportThenExport(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:       dir,
		ClassroomFile: filepath.Join(dir, "missing.yaml"),
		Timezone:      "Asia/Seoul",
		Summary:       config.SummaryConfig{RateDecimals: 1},
	}
	log := logger.NewWithWriter("error", io.Discard)
	ctx := context.Background()

	day := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	input := filepath.Join(dir, "committed.csv")
	require.NoError(t, export.SaveFile(input, []attendance.Record{
		{Date: day, Student: "이서연", Period: "2차시", Status: attendance.StatusPresent},
		{Date: day, Student: "김가령", Period: "1차시", Status: attendance.StatusAbsent, Reason: "정기결석"},
	}, true))

	require.NoError(t, run(ctx, cfg, options{input: input, format: "csv"}, io.Discard, log))

	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, options{stage: attendance.StageFinal, format: "csv", date: "2024-03-06"}, &out, log))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2024-03-06,김가령,1차시,absent,정기결석", lines[1], "sorted by period")

	out.Reset()
	require.NoError(t, run(ctx, cfg, options{stage: attendance.StageDraft, format: "csv"}, &out, log))
	assert.Equal(t, "date,name,period,status,reason", strings.TrimSpace(out.String()))

	xlsx := filepath.Join(dir, "day.xlsx")
	require.NoError(t, run(ctx, cfg, options{stage: attendance.StageFinal, format: "xlsx", date: "2024-03-06", out: xlsx}, io.Discard, log))
	assert.FileExists(t, xlsx)
}
