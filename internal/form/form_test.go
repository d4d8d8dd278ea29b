package form

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/classroom"
	domerrors "github.com/garyellow/attendance-go/internal/errors"
)

var wednesday = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

func testClass(t *testing.T) *classroom.Classroom {
	t.Helper()
	c, err := classroom.Parse(strings.NewReader(`
roster: [A, B, C]
periods: ["1", "2"]
recurring_absences:
  A:
    - weekdays: [wed]
      all_periods: true
  B:
    - weekdays: [mon, wed]
      period: "2"
`))
	require.NoError(t, err)
	return c
}

func TestState_Records(t *testing.T) {
	t.Parallel()
	f := New(testClass(t), wednesday)
	require.NoError(t, f.Mark("C", "1", "", "sick"))

	records := f.Records()
	require.Len(t, records, 6)

	byKey := make(map[string]attendance.Record)
	for _, r := range records {
		byKey[r.Period+"/"+r.Student] = r
	}
	assert.Equal(t, attendance.StatusAbsent, byKey["1/A"].Status)
	assert.Equal(t, attendance.DefaultRecurringReason, byKey["1/A"].Reason)
	assert.Equal(t, attendance.StatusPresent, byKey["1/B"].Status)
	assert.Equal(t, attendance.StatusAbsent, byKey["1/C"].Status)
	assert.Equal(t, "sick", byKey["1/C"].Reason)
	assert.Equal(t, attendance.StatusAbsent, byKey["2/B"].Status)
	assert.Equal(t, attendance.DefaultRecurringReason, byKey["2/B"].Reason)
	assert.Equal(t, attendance.StatusPresent, byKey["2/C"].Status)

	for _, r := range records {
		assert.Equal(t, "2024-03-06", attendance.FormatDate(r.Date))
	}
}

func TestState_Summaries(t *testing.T) {
	t.Parallel()
	f := New(testClass(t), wednesday)
	require.NoError(t, f.Mark("C", "1", attendance.StatusAbsent, "sick"))

	sums := f.Summaries(attendance.DefaultSummaryOptions())
	require.Len(t, sums, 2)
	assert.Equal(t, 1, sums[0].RegularCount)
	assert.Equal(t, 2, sums[0].EffectiveRosterSize)
	assert.Equal(t, 1, sums[0].PresentCount)
	assert.Equal(t, []string{"C"}, sums[0].AbsentNames)
	assert.Equal(t, "50.0%", sums[0].RateText)
	assert.Equal(t, "100.0%", sums[1].RateText)
}

func TestState_Restore(t *testing.T) {
	t.Parallel()
	f := New(testClass(t), wednesday)
	f.Restore([]attendance.Record{
		{Date: wednesday, Student: "C", Period: "1", Status: attendance.StatusAbsent, Reason: "sick"},
		{Date: wednesday, Student: "C", Period: "2", Status: attendance.StatusLate},
		{Date: wednesday, Student: "B", Period: "1", Status: attendance.StatusPresent},
		{Date: wednesday, Student: "A", Period: "1", Status: attendance.StatusAbsent, Reason: attendance.DefaultRecurringReason},
		{Date: wednesday, Student: "Z", Period: "1", Status: attendance.StatusAbsent},
		{Date: wednesday.AddDate(0, 0, 1), Student: "B", Period: "2", Status: attendance.StatusAbsent},
	})

	assert.Equal(t, 2, f.Len())
	m, ok := f.Marked("C", "1")
	require.True(t, ok)
	assert.Equal(t, Mark{Status: attendance.StatusAbsent, Reason: "sick"}, m)
	m, ok = f.Marked("C", "2")
	require.True(t, ok)
	assert.Equal(t, attendance.StatusLate, m.Status)
}

func TestState_MarkDropsNonAbsentReason(t *testing.T) {
	t.Parallel()
	f := New(testClass(t), wednesday)
	require.NoError(t, f.Mark("C", "1", attendance.StatusLate, "bus"))

	m, ok := f.Marked("C", "1")
	require.True(t, ok)
	assert.Empty(t, m.Reason)
	for _, r := range f.Records() {
		if r.Student == "C" && r.Period == "1" {
			assert.Equal(t, attendance.StatusLate, r.Status)
			assert.Empty(t, r.Reason)
		}
	}
}

func TestState_RegularSlotNotEditable(t *testing.T) {
	t.Parallel()
	f := New(testClass(t), wednesday)
	require.NoError(t, f.Mark("A", "1", attendance.StatusPresent, ""))
	require.NoError(t, f.SetReason("A", "1", "field trip"))
	assert.Equal(t, 0, f.Len())

	records := f.Records()
	assert.Equal(t, attendance.StatusAbsent, records[0].Status)
	assert.Equal(t, attendance.DefaultRecurringReason, records[0].Reason)
}

func TestState_Validation(t *testing.T) {
	t.Parallel()
	f := New(testClass(t), wednesday)

	assert.True(t, domerrors.IsInvalidInput(f.Mark("Z", "1", "", "")))
	assert.True(t, domerrors.IsInvalidInput(f.Mark("C", "9", "", "")))
	assert.True(t, domerrors.IsInvalidInput(f.Mark("C", "1", attendance.Status("excused"), "")))
	assert.True(t, domerrors.IsInvalidInput(f.Unmark("Z", "1")))
	assert.True(t, domerrors.IsInvalidInput(f.SetReason("C", "9", "x")))
}

func TestState_UnmarkAndReason(t *testing.T) {
	t.Parallel()
	f := New(testClass(t), wednesday)

	require.NoError(t, f.SetReason("C", "2", "dentist"))
	m, ok := f.Marked("C", "2")
	require.True(t, ok)
	assert.Equal(t, attendance.StatusAbsent, m.Status)
	assert.Equal(t, "dentist", m.Reason)

	require.NoError(t, f.Mark("C", "2", attendance.StatusPresent, "ignored"))
	for _, r := range f.Records() {
		if r.Student == "C" && r.Period == "2" {
			assert.Equal(t, attendance.StatusPresent, r.Status)
			assert.Empty(t, r.Reason)
		}
	}

	require.NoError(t, f.Unmark("C", "2"))
	_, ok = f.Marked("C", "2")
	assert.False(t, ok)
}
