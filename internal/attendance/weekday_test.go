package attendance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdaySet(t *testing.T) {
	t.Parallel()
	s := NewWeekdaySet(time.Wednesday, time.Monday, time.Sunday)

	assert.True(t, s.Has(time.Monday))
	assert.True(t, s.Has(time.Sunday))
	assert.False(t, s.Has(time.Tuesday))
	assert.False(t, s.Has(time.Weekday(9)))
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Sunday}, s.Days())
	assert.Equal(t, "Monday,Wednesday,Sunday", s.String())
	assert.True(t, WeekdaySet(0).IsEmpty())
	assert.Equal(t, s, s.With(time.Weekday(-1)))
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    time.Weekday
		wantErr bool
	}{
		{"Monday", time.Monday, false},
		{"wed", time.Wednesday, false},
		{" FRIDAY ", time.Friday, false},
		{"수요일", time.Wednesday, false},
		{"토", time.Saturday, false},
		{"someday", time.Sunday, true},
		{"", time.Sunday, true},
	}
	for _, tt := range tests {
		got, err := ParseWeekday(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWeekday(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseWeekday(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestKoreanWeekday(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "수요일", KoreanWeekday(time.Wednesday))
	assert.Equal(t, "일요일", KoreanWeekday(time.Sunday))
	assert.Empty(t, KoreanWeekday(time.Weekday(7)))
}

func TestParseStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Status
	}{
		{"present", StatusPresent},
		{"ABSENT", StatusAbsent},
		{"early-leave", StatusEarlyLeave},
		{"출석", StatusPresent},
		{"정기결석", StatusAbsent},
		{"지각", StatusLate},
		{"조퇴", StatusEarlyLeave},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.True(t, got.Valid())
	}

	_, err := ParseStatus("excused")
	assert.Error(t, err)
	assert.False(t, Status("excused").Valid())
}

func TestParseStage(t *testing.T) {
	t.Parallel()
	s, err := ParseStage("")
	require.NoError(t, err)
	assert.Equal(t, StageDraft, s)

	s, err = ParseStage("Final")
	require.NoError(t, err)
	assert.Equal(t, StageFinal, s)

	_, err = ParseStage("archive")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	d, err := ParseDate(" 2024-03-06 ")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.Equal(t, "2024-03-06", FormatDate(d))

	_, err = ParseDate("2024/03/06")
	assert.ErrorContains(t, err, "want YYYY-MM-DD")
}

func TestDateOf(t *testing.T) {
	t.Parallel()
	seoul := time.FixedZone("KST", 9*3600)
	got := DateOf(time.Date(2024, 3, 6, 23, 59, 0, 0, seoul))
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), got)
}

func TestRecord_MarshalJSON(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(rec("A", "1", StatusAbsent, "sick"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-06","student":"A","period":"1","status":"absent","reason":"sick"}`, string(b))
}
