package timeutil

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	t.Parallel()

	loc, err := LoadLocation("")
	if err != nil {
		t.Fatalf("LoadLocation(\"\") failed: %v", err)
	}
	// Korea is UTC+9 without daylight saving time.
	_, offset := time.Date(2024, 7, 1, 12, 0, 0, 0, loc).Zone()
	if offset != 9*60*60 {
		t.Errorf("Expected UTC+9 offset, got %d", offset)
	}

	if _, err := LoadLocation("Mars/Olympus"); err == nil {
		t.Error("Expected error for unknown zone")
	}
}

func TestToday(t *testing.T) {
	t.Parallel()
	loc, _ := LoadLocation("Asia/Seoul")

	// 2024-03-05 20:00 UTC is already 2024-03-06 in Seoul.
	now := func() time.Time { return time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC) }
	got := Today(now, loc)
	want := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Today() = %v, want %v", got, want)
	}
	if got.Weekday() != time.Wednesday {
		t.Errorf("Expected Wednesday, got %s", got.Weekday())
	}
}

func TestParseDay(t *testing.T) {
	t.Parallel()
	loc, _ := LoadLocation("Asia/Seoul")
	now := func() time.Time { return time.Date(2024, 3, 6, 3, 0, 0, 0, loc) }

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-01-02", "2024-01-02", false},
		{"today", "2024-03-06", false},
		{"Today", "2024-03-06", false},
		{"오늘", "2024-03-06", false},
		{"yesterday", "2024-03-05", false},
		{"tomorrow", "", true},
		{"2024-13-01", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDay(tt.in, now, loc)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDay(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestDayLabel(t *testing.T) {
	t.Parallel()
	got := DayLabel(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	if got != "2024-03-06 (수요일)" {
		t.Errorf("DayLabel() = %q", got)
	}
}
