package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/view"
)

func TestWriteXLSX(t *testing.T) {
	t.Parallel()
	records := sampleRecords()[:3]
	roster := []string{"01 김가령", "02 이서연", "03 박지우"}
	summaries := attendance.ComputeSummaries(records, roster, []string{"1차시"}, nil, time.Wednesday, attendance.DefaultSummaryOptions())

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Workbook{
		Title:     "2024-03-06 final",
		Records:   records,
		Summaries: summaries,
		Pivot:     view.Build(records, roster, []string{"1차시"}),
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetRecords, SheetSummary, SheetPivot}, f.GetSheetList())

	rows, err := f.GetRows(SheetRecords)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "2024-03-06 final", rows[0][0])
	assert.Equal(t, Header, rows[1])
	assert.Equal(t, []string{"2024-03-06", "01 김가령", "1차시", "absent", "정기결석"}, rows[2])

	rows, err = f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "1차시", rows[2][0])
	assert.Equal(t, "01 김가령, 03 박지우", rows[2][8])
	assert.Equal(t, "33.3%", rows[2][9])

	rows, err = f.GetRows(SheetPivot)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"name", "1차시_status", "1차시_reason"}, rows[1])
	assert.Equal(t, "❌ 정기결석", rows[2][1])
	assert.Equal(t, "✅", rows[3][1])
}

func TestWriteXLSX_Empty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Workbook{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetRecords)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Header, rows[0])
}
