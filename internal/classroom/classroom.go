// Package classroom loads the class configuration: roster, period labels and
// recurring-absence rules.
package classroom

import (
	"slices"
	"time"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/stringutil"
)

// Classroom is a validated class configuration.
type Classroom struct {
	Roster  []string
	Periods []string
	Rules   *attendance.RuleSet
}

// HasStudent reports whether name is on the roster.
func (c *Classroom) HasStudent(name string) bool {
	return slices.Contains(c.Roster, name)
}

// ResolveStudent maps a typed name to its roster entry. The name is normalized
// and roll-number prefixes are ignored on either side, so "01 김가령" and
// "김가령" find each other. The normalized input is returned when nothing matches.
func (c *Classroom) ResolveStudent(name string) (string, bool) {
	name = stringutil.NormalizeName(name)
	if c.HasStudent(name) {
		return name, true
	}
	_, bare := stringutil.SplitRollNumber(name)
	for _, s := range c.Roster {
		if _, rest := stringutil.SplitRollNumber(s); rest == bare {
			return s, true
		}
	}
	return name, false
}

// HasPeriod reports whether label is a configured period.
func (c *Classroom) HasPeriod(label string) bool {
	return slices.Contains(c.Periods, label)
}

// ResolveDay returns the default slot grid for date.
func (c *Classroom) ResolveDay(date time.Time) []attendance.Slot {
	return attendance.ResolveDay(c.Roster, c.Periods, date.Weekday(), c.Rules)
}

// Summaries computes per-period summaries of one date's records.
func (c *Classroom) Summaries(date time.Time, records []attendance.Record, opts attendance.SummaryOptions) []attendance.Summary {
	return attendance.ComputeSummaries(records, c.Roster, c.Periods, c.Rules, date.Weekday(), opts)
}

// SortRecords orders records by date, then period order, then roster order.
// Students and periods outside the configuration sort after the known ones,
// keeping their relative order.
func (c *Classroom) SortRecords(records []attendance.Record) []attendance.Record {
	periodRank := rank(c.Periods)
	studentRank := rank(c.Roster)
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b attendance.Record) int {
		if d := a.Date.Compare(b.Date); d != 0 {
			return d
		}
		if d := cmpRank(periodRank, a.Period, b.Period); d != 0 {
			return d
		}
		return cmpRank(studentRank, a.Student, b.Student)
	})
	return out
}

func rank(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, l := range labels {
		m[l] = i
	}
	return m
}

func cmpRank(ranks map[string]int, a, b string) int {
	ra, okA := ranks[a]
	rb, okB := ranks[b]
	switch {
	case okA && okB:
		return ra - rb
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

// RuleView is the flattened, display-ready form of one rule.
type RuleView struct {
	Student     string   `json:"student"`
	AllPeriods  bool     `json:"all_periods"`
	Period      string   `json:"period,omitempty"`
	Weekdays    []string `json:"weekdays"`
	WeekdaysKor []string `json:"weekdays_ko"`
}

// RuleViews lists every rule in rule-set order.
func (c *Classroom) RuleViews() []RuleView {
	views := make([]RuleView, 0)
	for _, student := range c.Rules.Students() {
		for _, r := range c.Rules.Rules(student) {
			days := r.Weekdays.Days()
			v := RuleView{
				Student:     student,
				AllPeriods:  r.Scope.IsAll(),
				Period:      r.Scope.Period(),
				Weekdays:    make([]string, len(days)),
				WeekdaysKor: make([]string, len(days)),
			}
			for i, d := range days {
				v.Weekdays[i] = d.String()
				v.WeekdaysKor[i] = attendance.KoreanWeekday(d)
			}
			views = append(views, v)
		}
	}
	return views
}

// Default returns the built-in sample class used when no classroom file exists.
func Default() *Classroom {
	f := &File{
		Roster:          []string{"김가령", "이서연", "박지우", "최민준", "정하윤"},
		Periods:         []string{"1차시", "2차시", "3차시", "4차시", "5차시"},
		RecurringReason: "정기결석",
		RecurringAbsences: map[string][]AbsenceEntry{
			"김가령": {
				{Weekdays: []string{"월요일"}, Periods: []string{"5차시"}},
				{Weekdays: []string{"수요일"}, Periods: []string{"1차시", "2차시"}},
			},
			"이서연": {{Weekdays: []string{"화요일"}, Period: "2차시"}},
			"정하윤": {{Weekdays: []string{"목요일"}, Period: "3차시"}},
		},
	}
	c, err := f.Build()
	if err != nil {
		panic("classroom: invalid built-in class: " + err.Error())
	}
	return c
}
