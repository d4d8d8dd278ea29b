package attendance

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is a set of weekdays stored as a bitmask (bit i = time.Weekday(i)).
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With returns a copy of the set that also contains d.
func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

// IsEmpty reports whether the set contains no weekdays.
func (s WeekdaySet) IsEmpty() bool {
	return s == 0
}

// Days returns the weekdays in the set, Monday first.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, d := range mondayFirst {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the set as a comma-separated list of English weekday names.
func (s WeekdaySet) String() string {
	days := s.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, ",")
}

var mondayFirst = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// weekdayNames maps lower-cased English and Korean names to weekdays.
var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "일요일": time.Sunday, "일": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "월요일": time.Monday, "월": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "화요일": time.Tuesday, "화": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "수요일": time.Wednesday, "수": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "목요일": time.Thursday, "목": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "금요일": time.Friday, "금": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "토요일": time.Saturday, "토": time.Saturday,
}

var koreanWeekdays = [...]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

// ParseWeekday accepts English names ("Monday", "mon") and Korean names ("월요일", "월").
func ParseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// KoreanWeekday returns the Korean name of d (e.g. "수요일").
func KoreanWeekday(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return koreanWeekdays[d]
}
