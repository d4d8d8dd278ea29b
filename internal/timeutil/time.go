// Package timeutil resolves the class time zone and calendar dates in it.
package timeutil

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database for minimal container images

	"github.com/garyellow/attendance-go/internal/attendance"
)

// DefaultZone is the zone the class runs in unless configured otherwise.
const DefaultZone = "Asia/Seoul"

// fixedZones is the fallback when zone data is not available.
var fixedZones = map[string]*time.Location{
	"Asia/Seoul": time.FixedZone("Asia/Seoul", 9*60*60),
	"UTC":        time.UTC,
}

// LoadLocation loads an IANA zone. An empty name loads DefaultZone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if fixed, ok := fixedZones[name]; ok {
		return fixed, nil
	}
	return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
}

// Clock returns the current time; tests replace it.
type Clock func() time.Time

// Today returns the current calendar date in loc, as a midnight-UTC date value.
func Today(now Clock, loc *time.Location) time.Time {
	if now == nil {
		now = time.Now
	}
	return attendance.DateOf(now().In(loc))
}

// ParseDay parses "YYYY-MM-DD", or the keywords "today" and "yesterday"
// resolved in loc.
func ParseDay(s string, now Clock, loc *time.Location) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "오늘":
		return Today(now, loc), nil
	case "yesterday", "어제":
		return Today(now, loc).AddDate(0, 0, -1), nil
	}
	return attendance.ParseDate(s)
}

// DayLabel renders a date with its Korean weekday, e.g. "2024-03-06 (수요일)".
func DayLabel(date time.Time) string {
	return fmt.Sprintf("%s (%s)", attendance.FormatDate(date), attendance.KoreanWeekday(date.Weekday()))
}
