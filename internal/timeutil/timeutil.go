// Package timeutil provides the calendar date arithmetic used by the layout engine.
//
// All helpers keep the location of their input and work on wall-clock (civil)
// dates, so a day is always one calendar day even across DST transitions.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidWeekStart is returned when a week start cannot be parsed.
var ErrInvalidWeekStart = errors.New("invalid week start")

// WeekStart is the weekday shown in the first column of a week.
type WeekStart time.Weekday

const (
	Sunday WeekStart = WeekStart(time.Sunday)
	Monday WeekStart = WeekStart(time.Monday)
)

// ParseWeekStart accepts a weekday name ("monday", "Mon") or a number 0 (Sunday) to 6 (Saturday).
func ParseWeekStart(s string) (WeekStart, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: %d is outside 0..6", ErrInvalidWeekStart, n)
		}
		return WeekStart(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return WeekStart(d), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekStart, s)
}

// Valid reports whether w is a weekday.
func (w WeekStart) Valid() bool {
	return w >= 0 && w <= 6
}

func (w WeekStart) String() string {
	return time.Weekday(w).String()
}

// StartOfDay returns midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return NextDay(t).Add(-time.Nanosecond)
}

// NextDay returns midnight of the day after t.
func NextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the first day of t's week.
func StartOfWeek(t time.Time, ws WeekStart) time.Time {
	diff := (int(t.Weekday()) - int(ws) + 7) % 7
	return AddDays(StartOfDay(t), -diff)
}

// EndOfWeek returns the last nanosecond of t's week.
func EndOfWeek(t time.Time, ws WeekStart) time.Time {
	return EndOfDay(AddDays(StartOfWeek(t, ws), 6))
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last nanosecond of t's month.
func EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// EachDay returns midnight of every day from start's day to end's day inclusive.
// It returns nil if end's day is before start's day.
func EachDay(start, end time.Time) []time.Time {
	first := StartOfDay(start)
	last := StartOfDay(end.In(start.Location()))
	if last.Before(first) {
		return nil
	}
	var days []time.Time
	for d := first; !d.After(last); d = NextDay(d) {
		days = append(days, d)
	}
	return days
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SameWeek reports whether a and b fall in the same week.
func SameWeek(a, b time.Time, ws WeekStart) bool {
	return StartOfWeek(a, ws).Equal(StartOfWeek(b.In(a.Location()), ws))
}

// SameMonth reports whether a and b fall in the same month of the same year.
func SameMonth(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// AddDays adds n calendar days, keeping the wall-clock time.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddWeeks adds n weeks.
func AddWeeks(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, 7*n)
}

// AddMonths adds n months. Unlike time.AddDate it does not overflow into the
// following month: Jan 31 + 1 month is the last day of February.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysInMonth(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// MinutesSinceMidnight returns the wall-clock minutes elapsed in t's day.
func MinutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DaysBetween returns the number of calendar days from a's day to b's day.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	b = b.In(a.Location())
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
