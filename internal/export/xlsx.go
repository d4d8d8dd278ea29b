package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/view"
)

// Sheet names of the workbook.
const (
	SheetRecords = "Records"
	SheetSummary = "Summary"
	SheetPivot   = "Pivot"
)

// Workbook is the content of one exported day.
type Workbook struct {
	Title     string
	Records   []attendance.Record
	Summaries []attendance.Summary
	Pivot     view.Pivot
}

var summaryHeader = []string{
	"period", "roster", "regular", "effective", "present", "absent",
	"late", "early_leave", "absent_names", "rate",
}

// WriteXLSX renders wb as an XLSX workbook with a sheet per view.
func WriteXLSX(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetRecords); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetPivot} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	records := make([][]any, 0, len(wb.Records))
	for _, r := range wb.Records {
		records = append(records, []any{attendance.FormatDate(r.Date), r.Student, r.Period, string(r.Status), r.Reason})
	}
	if err := writeSheet(f, SheetRecords, wb.Title, Header, records, headerStyle); err != nil {
		return err
	}

	summaries := make([][]any, 0, len(wb.Summaries))
	for _, s := range wb.Summaries {
		summaries = append(summaries, []any{
			s.Period, s.RosterSize, s.RegularCount, s.EffectiveRosterSize, s.PresentCount,
			s.AbsentCount, s.LateCount, s.EarlyLeaveCount, joinNames(s.AbsentNames), s.RateText,
		})
	}
	if err := writeSheet(f, SheetSummary, wb.Title, summaryHeader, summaries, headerStyle); err != nil {
		return err
	}

	pivot := make([][]any, 0, len(wb.Pivot.Rows))
	for _, line := range wb.Pivot.Table() {
		row := make([]any, len(line))
		for i, v := range line {
			row[i] = v
		}
		pivot = append(pivot, row)
	}
	if err := writeSheet(f, SheetPivot, wb.Title, wb.Pivot.Header("name"), pivot, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeSheet writes an optional merged title row, a styled header and the rows.
func writeSheet(f *excelize.File, sheet, title string, header []string, rows [][]any, style int) error {
	row := 1
	if title != "" {
		if err := f.SetCellValue(sheet, "A1", title); err != nil {
			return fmt.Errorf("%s title: %w", sheet, err)
		}
		row = 2
	}

	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(header), row)
	if err := f.SetSheetRow(sheet, first, &headerCells); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, row+1+i)
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(max(len(header), 1))
	if err := f.SetColWidth(sheet, "A", lastCol, 14); err != nil {
		return fmt.Errorf("%s column width: %w", sheet, err)
	}
	return nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
