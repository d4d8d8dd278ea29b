package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/attendance-go/internal/attendance"
)

var day = time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

func rec(student, period string, status attendance.Status, reason string) attendance.Record {
	return attendance.Record{Date: day, Student: student, Period: period, Status: status, Reason: reason}
}

func TestMark(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rec  attendance.Record
		want string
	}{
		{"present", rec("A", "1", attendance.StatusPresent, ""), "✅"},
		{"absent with reason", rec("A", "1", attendance.StatusAbsent, "병원"), "❌ 병원"},
		{"absent without reason", rec("A", "1", attendance.StatusAbsent, ""), "❌"},
		{"late", rec("A", "1", attendance.StatusLate, ""), "⏰"},
		{"early leave ignores note", rec("A", "1", attendance.StatusEarlyLeave, "두통"), "🏃"},
		{"unknown status", rec("A", "1", attendance.Status("excused"), ""), "excused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Mark(tt.rec))
		})
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()
	records := []attendance.Record{
		rec("B", "1", attendance.StatusPresent, ""),
		rec("A", "1", attendance.StatusAbsent, "sick"),
		rec("A", "2", attendance.StatusPresent, ""),
	}
	p := Build(records, []string{"A", "B", "C"}, []string{"1", "2"})

	require.Len(t, p.Rows, 3)
	assert.Equal(t, "A", p.Rows[0].Student)
	assert.Equal(t, Cell{Status: "❌ sick", Reason: "sick"}, p.Rows[0].Cells[0])
	assert.Equal(t, Cell{Status: "✅"}, p.Rows[0].Cells[1])
	assert.Equal(t, Cell{Status: "✅"}, p.Rows[1].Cells[0])
	assert.Equal(t, Cell{}, p.Rows[1].Cells[1], "missing record stays empty")
	assert.Equal(t, "C", p.Rows[2].Student)

	assert.Equal(t, []string{"name", "1_status", "1_reason", "2_status", "2_reason"}, p.Header("name"))
	assert.Equal(t, []string{"A", "❌ sick", "sick", "✅", ""}, p.Table()[0])
}

func TestBuild_ExtraStudentsAndPeriods(t *testing.T) {
	t.Parallel()
	records := []attendance.Record{
		rec("Z", "1", attendance.StatusPresent, ""),
		rec("Y", "9", attendance.StatusAbsent, ""),
		rec("A", "1", attendance.StatusPresent, ""),
	}
	p := Build(records, []string{"A"}, []string{"1"})

	assert.Equal(t, []string{"1", "9"}, p.Periods)
	require.Len(t, p.Rows, 3)
	assert.Equal(t, "A", p.Rows[0].Student)
	assert.Equal(t, "Y", p.Rows[1].Student)
	assert.Equal(t, "Z", p.Rows[2].Student)
	assert.Equal(t, "❌", p.Rows[1].Cells[1].Status)
}

func TestBuild_FirstRecordWins(t *testing.T) {
	t.Parallel()
	records := []attendance.Record{
		rec("A", "1", attendance.StatusAbsent, "first"),
		rec("A", "1", attendance.StatusPresent, ""),
	}
	p := Build(records, []string{"A"}, []string{"1"})
	assert.Equal(t, "first", p.Rows[0].Cells[0].Reason)
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()
	p := Build(nil, nil, []string{"1"})
	assert.Empty(t, p.Rows)
	assert.Empty(t, p.Table())
	assert.Equal(t, []string{"이름", "1_status", "1_reason"}, p.Header("이름"))
}
