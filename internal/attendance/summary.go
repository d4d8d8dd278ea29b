package attendance

import (
	"strconv"
	"time"

	"github.com/garyellow/attendance-go/internal/stringutil"
)

// SummaryOptions decides how regular (rule-exempt) absentees are counted.
// The zero value excludes regular absentees from every count except RegularCount.
type SummaryOptions struct {
	// CountRegularPresent counts a regular absentee that still has a "present"
	// (or late / early-leave) record. The rate denominator excludes them either way.
	CountRegularPresent bool

	// IncludeRegularAbsent adds rule-derived absences to AbsentCount and AbsentNames.
	IncludeRegularAbsent bool

	// RateDecimals is the number of decimals in RateText (0 or 1; other values clamp).
	RateDecimals int
}

// DefaultSummaryOptions renders rates with one decimal.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{RateDecimals: 1}
}

// Summary is the attendance summary of one period on one date.
type Summary struct {
	Period              string   `json:"period"`
	RosterSize          int      `json:"roster_size"`
	RegularCount        int      `json:"regular_count"`
	EffectiveRosterSize int      `json:"effective_roster_size"`
	PresentCount        int      `json:"present_count"`
	AbsentCount         int      `json:"absent_count"`
	LateCount           int      `json:"late_count"`
	EarlyLeaveCount     int      `json:"early_leave_count"`
	AbsentNames         []string `json:"absent_names"`
	Rate                float64  `json:"rate"`
	RateText            string   `json:"rate_text"`
}

// ComputePeriodSummary summarises one period. Only records of roster students
// for period are considered; callers pass the records of a single date.
func ComputePeriodSummary(records []Record, roster []string, rules *RuleSet, period string, weekday time.Weekday, opts SummaryOptions) Summary {
	byStudent := make(map[string]Record, len(roster))
	for _, r := range records {
		if r.Period == period {
			byStudent[r.Student] = r
		}
	}

	s := Summary{Period: period, RosterSize: len(roster), AbsentNames: []string{}}
	for _, student := range roster {
		regular := ResolveSlot(student, period, weekday, rules).IsAutoAbsent
		if regular {
			s.RegularCount++
		}

		r, ok := byStudent[student]
		if !ok {
			continue
		}
		switch r.Status {
		case StatusAbsent:
			if regular && !opts.IncludeRegularAbsent {
				continue
			}
			s.AbsentCount++
			s.AbsentNames = append(s.AbsentNames, student)
		case StatusPresent, StatusLate, StatusEarlyLeave:
			if regular && !opts.CountRegularPresent {
				continue
			}
			switch r.Status {
			case StatusPresent:
				s.PresentCount++
			case StatusLate:
				s.LateCount++
			case StatusEarlyLeave:
				s.EarlyLeaveCount++
			}
		}
	}

	s.EffectiveRosterSize = s.RosterSize - s.RegularCount
	if s.EffectiveRosterSize > 0 {
		s.Rate = float64(s.PresentCount) / float64(s.EffectiveRosterSize) * 100
	}
	s.RateText = FormatRate(s.Rate, opts.RateDecimals)
	s.AbsentNames = stringutil.SortNames(s.AbsentNames)
	return s
}

// ComputeSummaries summarises every period in order.
func ComputeSummaries(records []Record, roster, periods []string, rules *RuleSet, weekday time.Weekday, opts SummaryOptions) []Summary {
	out := make([]Summary, 0, len(periods))
	for _, p := range periods {
		out = append(out, ComputePeriodSummary(records, roster, rules, p, weekday, opts))
	}
	return out
}

// FormatRate renders a percentage with 0 or 1 decimals, e.g. "66.7%".
func FormatRate(rate float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if decimals > 1 {
		decimals = 1
	}
	return strconv.FormatFloat(rate, 'f', decimals, 64) + "%"
}
