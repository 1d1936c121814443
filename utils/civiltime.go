package utils

import (
	"fmt"
	"time"
)

// ScheduleLayout is the fixed-width civil layout reminders are stored with.
// Zero padding makes lexicographic order match chronological order.
const ScheduleLayout = "2006-01-02T15:04:05"

// IntentLayout is the minute-precision layout the classifier exchanges with the model.
const IntentLayout = "2006-01-02 15:04"

// LoadZone resolves the reminder timezone. Every reader and writer of the
// store has to use the same zone.
func LoadZone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// FormatCivil renders t as wall-clock time in loc using ScheduleLayout.
func FormatCivil(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(ScheduleLayout)
}

// ParseCivil is the inverse of FormatCivil.
func ParseCivil(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(ScheduleLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse scheduled time %q: %w", s, err)
	}
	return t, nil
}

// DueWindow returns the inclusive civil-time bounds of |scheduled - now| <= tolerance
// at second precision.
func DueWindow(now time.Time, tolerance time.Duration, loc *time.Location) (lower, upper string) {
	lo := now.Add(-tolerance)
	if t := lo.Truncate(time.Second); !t.Equal(lo) {
		lo = t.Add(time.Second)
	}
	hi := now.Add(tolerance).Truncate(time.Second)
	return FormatCivil(lo, loc), FormatCivil(hi, loc)
}
