package attendance

import (
	"fmt"
	"time"

	domerrors "github.com/garyellow/attendance-go/internal/errors"
)

// DefaultRecurringReason marks absences derived from a recurring-absence rule.
const DefaultRecurringReason = "recurring absence"

// Scope selects the periods a rule applies to.
// The zero value applies to all periods.
type Scope struct {
	period string
}

// AllPeriods is the scope matching every period.
func AllPeriods() Scope { return Scope{} }

// SpecificPeriod is the scope matching only the given period label.
func SpecificPeriod(label string) Scope { return Scope{period: label} }

// IsAll reports whether the scope covers every period.
func (s Scope) IsAll() bool { return s.period == "" }

// Period returns the period label of a specific scope, or "" for all periods.
func (s Scope) Period() string { return s.period }

// Matches reports whether the scope covers period.
func (s Scope) Matches(period string) bool {
	return s.IsAll() || s.period == period
}

func (s Scope) String() string {
	if s.IsAll() {
		return "all periods"
	}
	return s.period
}

// Rule marks a student absent in Scope on each of Weekdays.
type Rule struct {
	Scope    Scope
	Weekdays WeekdaySet
}

// Matches reports whether the rule covers (period, weekday).
func (r Rule) Matches(period string, weekday time.Weekday) bool {
	return r.Weekdays.Has(weekday) && r.Scope.Matches(period)
}

// RuleSet maps students to their recurring-absence rules.
// A nil or empty RuleSet resolves every slot to "not auto-absent".
type RuleSet struct {
	rules  map[string][]Rule
	order  []string
	reason string
}

// NewRuleSet creates an empty rule set. An empty reason uses DefaultRecurringReason.
func NewRuleSet(reason string) *RuleSet {
	if reason == "" {
		reason = DefaultRecurringReason
	}
	return &RuleSet{rules: make(map[string][]Rule), reason: reason}
}

// Add registers the complete rule list of one student.
// A student may be added only once; a second Add for the same student is an error
// instead of silently replacing the earlier rules.
func (rs *RuleSet) Add(student string, rules ...Rule) error {
	if student == "" {
		return domerrors.NewValidationError("student", "empty name")
	}
	if _, exists := rs.rules[student]; exists {
		return fmt.Errorf("rule set: %w %q", domerrors.ErrDuplicateStudent, student)
	}
	for i, r := range rules {
		if r.Weekdays.IsEmpty() {
			return domerrors.NewValidationError("weekdays", fmt.Sprintf("student %q rule %d has no weekdays", student, i))
		}
	}
	rs.rules[student] = append([]Rule(nil), rules...)
	rs.order = append(rs.order, student)
	return nil
}

// Reason returns the reason marker used for rule-derived absences.
func (rs *RuleSet) Reason() string {
	if rs == nil || rs.reason == "" {
		return DefaultRecurringReason
	}
	return rs.reason
}

// Rules returns the rules of student. Unknown students have no rules.
func (rs *RuleSet) Rules(student string) []Rule {
	if rs == nil {
		return nil
	}
	return rs.rules[student]
}

// Students returns the students that have rules, in insertion order.
func (rs *RuleSet) Students() []string {
	if rs == nil {
		return nil
	}
	return append([]string(nil), rs.order...)
}

// Len returns the number of students with rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.order)
}

// Resolution is the outcome of resolving one slot.
type Resolution struct {
	IsAutoAbsent bool   `json:"is_auto_absent"`
	Reason       string `json:"reason,omitempty"`
}

// ResolveSlot decides whether the (student, period, weekday) slot is automatically absent.
// Any matching rule wins; the reason is the rule set's fixed marker.
func ResolveSlot(student, period string, weekday time.Weekday, rules *RuleSet) Resolution {
	for _, r := range rules.Rules(student) {
		if r.Matches(period, weekday) {
			return Resolution{IsAutoAbsent: true, Reason: rules.Reason()}
		}
	}
	return Resolution{}
}

// Slot is one cell of the default grid for a day.
type Slot struct {
	Period  string `json:"period"`
	Student string `json:"student"`
	Resolution
}

// ResolveDay resolves every period × student slot for a weekday, in period then roster order.
func ResolveDay(roster, periods []string, weekday time.Weekday, rules *RuleSet) []Slot {
	slots := make([]Slot, 0, len(roster)*len(periods))
	for _, period := range periods {
		for _, student := range roster {
			slots = append(slots, Slot{
				Period:     period,
				Student:    student,
				Resolution: ResolveSlot(student, period, weekday, rules),
			})
		}
	}
	return slots
}
