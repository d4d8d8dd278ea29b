// Package attendance holds the attendance domain: records and their statuses,
// recurring-absence rules and their resolution, and per-period summaries.
//
// Everything in this package is pure; persistence and presentation live in
// the storage, export and view packages.
package attendance

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/garyellow/attendance-go/internal/stringutil"
)

// DateLayout is the canonical date format used in keys, storage and CSV.
const DateLayout = "2006-01-02"

// Status is the attendance status of one slot.
type Status string

// Attendance statuses.
const (
	StatusPresent    Status = "present"
	StatusAbsent     Status = "absent"
	StatusLate       Status = "late"
	StatusEarlyLeave Status = "early_leave"
)

// statusAliases accepts the labels used by the spreadsheet exports this tool replaces.
var statusAliases = map[string]Status{
	"present":     StatusPresent,
	"absent":      StatusAbsent,
	"late":        StatusLate,
	"early_leave": StatusEarlyLeave,
	"early-leave": StatusEarlyLeave,
	"출석":          StatusPresent,
	"결석":          StatusAbsent,
	"정기결석":        StatusAbsent,
	"지각":          StatusLate,
	"조퇴":          StatusEarlyLeave,
}

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusEarlyLeave:
		return true
	default:
		return false
	}
}

// ParseStatus parses a canonical status or one of its Korean labels.
func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Stage is the lifecycle stage of a record set.
type Stage string

// Record stages. Draft is editable staging; final is the committed snapshot.
const (
	StageDraft Stage = "draft"
	StageFinal Stage = "final"
)

// ParseStage parses a stage name. An empty string means draft.
func ParseStage(s string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case "", StageDraft:
		return StageDraft, nil
	case StageFinal:
		return StageFinal, nil
	default:
		return "", fmt.Errorf("unknown stage %q", s)
	}
}

// Key identifies a slot: at most one record exists per key in a table.
type Key struct {
	Date    string
	Student string
	Period  string
}

// Record is one attendance entry.
type Record struct {
	Date    time.Time `json:"-"`
	Student string    `json:"student"`
	Period  string    `json:"period"`
	Status  Status    `json:"status"`
	Reason  string    `json:"reason,omitempty"`
}

// Key returns the record's slot key.
func (r Record) Key() Key {
	return Key{Date: FormatDate(r.Date), Student: r.Student, Period: r.Period}
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		Date string `json:"date"`
		plain
	}{Date: FormatDate(r.Date), plain: plain(r)})
}

// Normalize canonicalizes the date and student name and enforces the reason
// invariant: only absent records carry a reason.
func (r Record) Normalize() Record {
	r.Date = DateOf(r.Date)
	r.Student = stringutil.NormalizeName(r.Student)
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Status != StatusAbsent {
		r.Reason = ""
	}
	return r
}

// ParseDate parses a YYYY-MM-DD date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf drops the clock part of t, keeping its calendar date in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
