// Package export reads and writes attendance records as CSV and renders
// XLSX workbooks of a day's records, summary and pivot.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/garyellow/attendance-go/internal/attendance"
	domerrors "github.com/garyellow/attendance-go/internal/errors"
	"github.com/garyellow/attendance-go/internal/stringutil"
)

// Header is the CSV column order.
var Header = []string{"date", "name", "period", "status", "reason"}

// koreanHeader is accepted on read for files produced by the spreadsheet workflow.
var koreanHeader = []string{"날짜", "이름", "차시", "상태", "사유"}

// utf8BOM is prepended when writing for spreadsheet applications.
const utf8BOM = "\ufeff"

// WriteCSV writes normalized records with a header row. With bom set the
// output starts with a UTF-8 byte order mark.
func WriteCSV(w io.Writer, records []attendance.Record, bom bool) error {
	if bom {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return fmt.Errorf("write bom: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		r = r.Normalize()
		row := []string{attendance.FormatDate(r.Date), r.Student, r.Period, string(r.Status), r.Reason}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses records written by WriteCSV. A leading BOM is skipped and the
// Korean header is accepted. Re-occurring keys overwrite earlier rows.
func ReadCSV(r io.Reader) (*attendance.Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(bufio.NewReader(decoded))
	cr.FieldsPerRecord = len(Header)

	table := attendance.NewTable()
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", domerrors.ErrInvalidInput, err)
	}
	if !matchHeader(header, Header) && !matchHeader(header, koreanHeader) {
		return nil, domerrors.NewValidationError("header", fmt.Sprintf("unexpected columns %q", strings.Join(header, ",")))
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domerrors.ErrInvalidInput, err)
		}
		line, _ := cr.FieldPos(0)

		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		table.Upsert(rec)
	}
	return table, nil
}

func parseRow(row []string) (attendance.Record, error) {
	date, err := attendance.ParseDate(row[0])
	if err != nil {
		return attendance.Record{}, domerrors.NewValidationError("date", err.Error())
	}
	status, err := attendance.ParseStatus(row[3])
	if err != nil {
		return attendance.Record{}, domerrors.NewValidationError("status", err.Error())
	}
	student := stringutil.NormalizeName(row[1])
	period := strings.TrimSpace(row[2])
	if student == "" || period == "" {
		return attendance.Record{}, domerrors.NewValidationError("record", "name and period are required")
	}
	return attendance.Record{
		Date:    date,
		Student: student,
		Period:  period,
		Status:  status,
		Reason:  row[4],
	}.Normalize(), nil
}

func matchHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if !strings.EqualFold(strings.TrimSpace(got[i]), want[i]) {
			return false
		}
	}
	return true
}

// LoadFile reads a CSV file. A missing file is an empty table.
func LoadFile(path string) (*attendance.Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return attendance.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// SaveFile writes records to path through a temporary file and a rename, so
// readers never observe a partial file.
func SaveFile(path string, records []attendance.Record, bom bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	w := bufio.NewWriter(tmp)
	if err := WriteCSV(w, records, bom); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
