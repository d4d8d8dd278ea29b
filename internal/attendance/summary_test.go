package attendance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wednesday = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

func rec(student, period string, status Status, reason string) Record {
	return Record{Date: wednesday, Student: student, Period: period, Status: status, Reason: reason}
}

func TestComputePeriodSummary_Wednesday(t *testing.T) {
	t.Parallel()
	rs := classRules(t)
	roster := []string{"A", "B", "C"}
	records := []Record{
		rec("A", "1", StatusAbsent, DefaultRecurringReason),
		rec("B", "1", StatusPresent, ""),
		rec("C", "1", StatusAbsent, "sick"),
		rec("A", "2", StatusAbsent, DefaultRecurringReason),
		rec("B", "2", StatusAbsent, DefaultRecurringReason),
		rec("C", "2", StatusPresent, ""),
	}

	p1 := ComputePeriodSummary(records, roster, rs, "1", time.Wednesday, DefaultSummaryOptions())
	assert.Equal(t, 3, p1.RosterSize)
	assert.Equal(t, 1, p1.RegularCount)
	assert.Equal(t, 2, p1.EffectiveRosterSize)
	assert.Equal(t, 1, p1.PresentCount)
	assert.Equal(t, 1, p1.AbsentCount)
	assert.Equal(t, []string{"C"}, p1.AbsentNames)
	assert.InDelta(t, 50.0, p1.Rate, 1e-9)
	assert.Equal(t, "50.0%", p1.RateText)

	p2 := ComputePeriodSummary(records, roster, rs, "2", time.Wednesday, DefaultSummaryOptions())
	assert.Equal(t, 2, p2.RegularCount)
	assert.Equal(t, 1, p2.EffectiveRosterSize)
	assert.Equal(t, 1, p2.PresentCount)
	assert.Equal(t, 0, p2.AbsentCount)
	assert.Empty(t, p2.AbsentNames)
	assert.NotNil(t, p2.AbsentNames)
	assert.Equal(t, "100.0%", p2.RateText)

	body, err := json.Marshal(p2)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"absent_names":[]`)
}

func TestComputePeriodSummary_EveryoneRegular(t *testing.T) {
	t.Parallel()
	rs := NewRuleSet("")
	for _, s := range []string{"A", "B"} {
		require.NoError(t, rs.Add(s, Rule{Scope: AllPeriods(), Weekdays: NewWeekdaySet(time.Wednesday)}))
	}
	records := []Record{
		rec("A", "1", StatusAbsent, DefaultRecurringReason),
		rec("B", "1", StatusAbsent, DefaultRecurringReason),
	}

	got := ComputePeriodSummary(records, []string{"A", "B"}, rs, "1", time.Wednesday, DefaultSummaryOptions())
	assert.Equal(t, 0, got.EffectiveRosterSize)
	assert.Zero(t, got.Rate)
	assert.Equal(t, "0.0%", got.RateText)
}

func TestComputePeriodSummary_EmptyRoster(t *testing.T) {
	t.Parallel()
	got := ComputePeriodSummary(nil, nil, nil, "1", time.Monday, SummaryOptions{})
	assert.Equal(t, 0, got.RosterSize)
	assert.Zero(t, got.Rate)
	assert.Equal(t, "0%", got.RateText)
	assert.NotNil(t, got.AbsentNames)
}

func TestComputePeriodSummary_Options(t *testing.T) {
	t.Parallel()
	rs := classRules(t)
	roster := []string{"A", "B", "C"}
	records := []Record{
		rec("A", "1", StatusPresent, ""), // regular absentee who showed up
		rec("B", "1", StatusPresent, ""),
		rec("C", "1", StatusPresent, ""),
		rec("A", "2", StatusAbsent, DefaultRecurringReason),
		rec("B", "2", StatusAbsent, DefaultRecurringReason),
		rec("C", "2", StatusAbsent, "sick"),
	}

	tests := []struct {
		name        string
		opts        SummaryOptions
		period      string
		wantPresent int
		wantAbsent  []string
	}{
		{"default excludes regular present", SummaryOptions{}, "1", 2, []string{}},
		{"count regular present", SummaryOptions{CountRegularPresent: true}, "1", 3, []string{}},
		{"default excludes regular absent", SummaryOptions{}, "2", 0, []string{"C"}},
		{"include regular absent", SummaryOptions{IncludeRegularAbsent: true}, "2", 0, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ComputePeriodSummary(records, roster, rs, tt.period, time.Wednesday, tt.opts)
			assert.Equal(t, tt.wantPresent, got.PresentCount)
			assert.Equal(t, len(tt.wantAbsent), got.AbsentCount)
			assert.Equal(t, tt.wantAbsent, got.AbsentNames)
		})
	}
}

func TestComputePeriodSummary_LateAndEarlyLeave(t *testing.T) {
	t.Parallel()
	roster := []string{"A", "B", "C", "D"}
	records := []Record{
		rec("A", "1", StatusPresent, ""),
		rec("B", "1", StatusLate, ""),
		rec("C", "1", StatusEarlyLeave, "병원"),
		rec("D", "1", StatusAbsent, "sick"),
	}

	got := ComputePeriodSummary(records, roster, nil, "1", time.Wednesday, DefaultSummaryOptions())
	assert.Equal(t, 1, got.PresentCount)
	assert.Equal(t, 1, got.LateCount)
	assert.Equal(t, 1, got.EarlyLeaveCount)
	assert.Equal(t, 1, got.AbsentCount)
	assert.Equal(t, "25.0%", got.RateText)
}

func TestComputePeriodSummary_IgnoresOutsiders(t *testing.T) {
	t.Parallel()
	records := []Record{
		rec("A", "1", StatusPresent, ""),
		rec("X", "1", StatusAbsent, "transferred"),
		rec("A", "2", StatusAbsent, "other period"),
	}
	got := ComputePeriodSummary(records, []string{"A"}, nil, "1", time.Wednesday, DefaultSummaryOptions())
	assert.Equal(t, 1, got.PresentCount)
	assert.Equal(t, 0, got.AbsentCount)
	assert.Equal(t, "100.0%", got.RateText)
}

func TestComputePeriodSummary_SortedAbsentNames(t *testing.T) {
	t.Parallel()
	roster := []string{"10 박지훈", "2 이서연", "01 김가령"}
	var records []Record
	for _, s := range roster {
		records = append(records, rec(s, "1", StatusAbsent, "trip"))
	}
	got := ComputePeriodSummary(records, roster, nil, "1", time.Wednesday, DefaultSummaryOptions())
	assert.Equal(t, []string{"01 김가령", "2 이서연", "10 박지훈"}, got.AbsentNames)
}

func TestComputeSummaries(t *testing.T) {
	t.Parallel()
	rs := classRules(t)
	got := ComputeSummaries(nil, []string{"A", "B", "C"}, []string{"1", "2", "3"}, rs, time.Wednesday, DefaultSummaryOptions())
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].Period)
	assert.Equal(t, "3", got[2].Period)
	assert.Equal(t, 2, got[1].RegularCount)
}

func TestFormatRate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rate     float64
		decimals int
		want     string
	}{
		{66.6666, 1, "66.7%"},
		{66.6666, 0, "67%"},
		{100, 1, "100.0%"},
		{0, 1, "0.0%"},
		{50, -3, "50%"},
		{33.333, 5, "33.3%"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.rate, tt.decimals); got != tt.want {
			t.Errorf("FormatRate(%v, %d) = %q, want %q", tt.rate, tt.decimals, got, tt.want)
		}
	}
}
