// Package form holds the per-request attendance form: the manual marks a user
// made for one date, and the records a save produces from them.
package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/classroom"
	domerrors "github.com/garyellow/attendance-go/internal/errors"
)

type slot struct {
	period  string
	student string
}

// Mark is a manual entry for one slot.
type Mark struct {
	Status attendance.Status
	Reason string
}

// State is the form of a single date; another date needs a new State.
// State is not safe for concurrent use.
type State struct {
	class *classroom.Classroom
	date  time.Time
	marks map[slot]Mark
}

// New creates an empty form for date.
func New(class *classroom.Classroom, date time.Time) *State {
	return &State{
		class: class,
		date:  attendance.DateOf(date),
		marks: make(map[slot]Mark),
	}
}

// Restore seeds the marks from previously saved records of the form's date.
// Present records, rule-exempt slots and slots no longer on the roster are skipped.
func (s *State) Restore(records []attendance.Record) {
	for _, r := range records {
		if r.Status == attendance.StatusPresent || !attendance.DateOf(r.Date).Equal(s.date) {
			continue
		}
		_ = s.Mark(r.Student, r.Period, r.Status, r.Reason)
	}
}

// Mark records a manual status for (student, period). An empty status means absent.
// The reason is kept only for absences. Slots exempted by a recurring-absence
// rule are not editable and are left unchanged.
func (s *State) Mark(student, period string, status attendance.Status, reason string) error {
	if err := s.check(student, period); err != nil {
		return err
	}
	if status == "" {
		status = attendance.StatusAbsent
	}
	if !status.Valid() {
		return domerrors.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	if s.regular(student, period) {
		return nil
	}
	if status != attendance.StatusAbsent {
		reason = ""
	}
	s.marks[slot{period, student}] = Mark{Status: status, Reason: strings.TrimSpace(reason)}
	return nil
}

// Unmark removes a manual mark; the slot goes back to present.
func (s *State) Unmark(student, period string) error {
	if err := s.check(student, period); err != nil {
		return err
	}
	delete(s.marks, slot{period, student})
	return nil
}

// SetReason marks the slot absent with reason.
func (s *State) SetReason(student, period, reason string) error {
	return s.Mark(student, period, attendance.StatusAbsent, reason)
}

// Marked returns the manual mark of a slot, if any.
func (s *State) Marked(student, period string) (Mark, bool) {
	m, ok := s.marks[slot{period, student}]
	return m, ok
}

// Len returns the number of manual marks.
func (s *State) Len() int { return len(s.marks) }

// Records builds the full save set: one record per period and roster student, in
// period then roster order. Rule-exempt slots become absent with the recurring
// reason, marked slots take their mark, everything else is present.
func (s *State) Records() []attendance.Record {
	records := make([]attendance.Record, 0, len(s.class.Periods)*len(s.class.Roster))
	for _, sl := range s.class.ResolveDay(s.date) {
		r := attendance.Record{
			Date:    s.date,
			Student: sl.Student,
			Period:  sl.Period,
			Status:  attendance.StatusPresent,
		}
		switch m, ok := s.marks[slot{sl.Period, sl.Student}]; {
		case sl.IsAutoAbsent:
			r.Status = attendance.StatusAbsent
			r.Reason = sl.Reason
		case ok:
			r.Status = m.Status
			r.Reason = m.Reason
		}
		records = append(records, r.Normalize())
	}
	return records
}

// Summaries computes the live per-period summary of the form.
func (s *State) Summaries(opts attendance.SummaryOptions) []attendance.Summary {
	return s.class.Summaries(s.date, s.Records(), opts)
}

func (s *State) check(student, period string) error {
	if !s.class.HasStudent(student) {
		return domerrors.NewValidationError("student", fmt.Sprintf("%q is not on the roster", student))
	}
	if !s.class.HasPeriod(period) {
		return domerrors.NewValidationError("period", fmt.Sprintf("unknown period %q", period))
	}
	return nil
}

func (s *State) regular(student, period string) bool {
	return attendance.ResolveSlot(student, period, s.date.Weekday(), s.class.Rules).IsAutoAbsent
}
