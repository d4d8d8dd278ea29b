// Package view reshapes attendance records for display: one row per student
// with a (status, reason) column pair per period.
package view

import (
	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/sliceutil"
	"github.com/garyellow/attendance-go/internal/stringutil"
)

// Status marks shown in the pivot.
const (
	MarkPresent    = "✅"
	MarkAbsent     = "❌"
	MarkLate       = "⏰"
	MarkEarlyLeave = "🏃"
)

// Cell is one (status, reason) pair of a pivot row.
type Cell struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Row is one student's line of the pivot; Cells follow Pivot.Periods.
type Row struct {
	Student string `json:"student"`
	Cells   []Cell `json:"cells"`
}

// Pivot is the per-student view of a record set.
type Pivot struct {
	Periods []string `json:"periods"`
	Rows    []Row    `json:"rows"`
}

// Mark renders the status cell of a record, e.g. "❌ 병원". Only absences
// show their reason.
func Mark(r attendance.Record) string {
	switch r.Status {
	case attendance.StatusPresent:
		return MarkPresent
	case attendance.StatusLate:
		return MarkLate
	case attendance.StatusEarlyLeave:
		return MarkEarlyLeave
	case attendance.StatusAbsent:
		if r.Reason != "" {
			return MarkAbsent + " " + r.Reason
		}
		return MarkAbsent
	default:
		return string(r.Status)
	}
}

// Build pivots records. Rows follow roster order, then any other students found
// in records in name order. Periods follow the given order, then unknown periods
// in first-seen order. When a slot has several records the first one wins.
func Build(records []attendance.Record, roster, periods []string) Pivot {
	periodIdx := make(map[string]int, len(periods))
	cols := append([]string(nil), periods...)
	for i, p := range cols {
		periodIdx[p] = i
	}
	for _, r := range records {
		if _, ok := periodIdx[r.Period]; !ok {
			periodIdx[r.Period] = len(cols)
			cols = append(cols, r.Period)
		}
	}

	onRoster := make(map[string]bool, len(roster))
	for _, s := range roster {
		onRoster[s] = true
	}
	extra := sliceutil.Deduplicate(
		sliceutil.Map(
			sliceutil.Filter(records, func(r attendance.Record) bool { return !onRoster[r.Student] }),
			func(r attendance.Record) string { return r.Student },
		),
		func(s string) string { return s },
	)
	students := append(append([]string(nil), roster...), stringutil.SortNames(extra)...)

	rowIdx := make(map[string]int, len(students))
	rows := make([]Row, len(students))
	for i, s := range students {
		rowIdx[s] = i
		rows[i] = Row{Student: s, Cells: make([]Cell, len(cols))}
	}

	filled := make(map[[2]int]bool, len(records))
	for _, r := range records {
		pos := [2]int{rowIdx[r.Student], periodIdx[r.Period]}
		if filled[pos] {
			continue
		}
		filled[pos] = true
		rows[pos[0]].Cells[pos[1]] = Cell{Status: Mark(r), Reason: r.Reason}
	}

	return Pivot{Periods: cols, Rows: rows}
}

// Header returns the flat column names: the name column, then
// "<period>_status" and "<period>_reason" for every period.
func (p Pivot) Header(nameColumn string) []string {
	h := make([]string, 0, 1+2*len(p.Periods))
	h = append(h, nameColumn)
	for _, period := range p.Periods {
		h = append(h, period+"_status", period+"_reason")
	}
	return h
}

// Table flattens the pivot into string rows matching Header.
func (p Pivot) Table() [][]string {
	out := make([][]string, len(p.Rows))
	for i, row := range p.Rows {
		line := make([]string, 0, 1+2*len(row.Cells))
		line = append(line, row.Student)
		for _, c := range row.Cells {
			line = append(line, c.Status, c.Reason)
		}
		out[i] = line
	}
	return out
}
