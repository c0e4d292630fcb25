package layout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/timeutil"
)

// ErrUnknownView is returned when a view name is not day, week or month.
var ErrUnknownView = errors.New("unknown view")

// View is the calendar period shown at once.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// ParseView parses a view name.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewDay, ViewWeek, ViewMonth:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Direction is the way Navigate moves.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// Navigate moves date by one view period. Month steps clamp to the last day
// of a shorter month (Jan 31 + 1 month = Feb 28).
func Navigate(date time.Time, view View, dir Direction) time.Time {
	switch view {
	case ViewMonth:
		return timeutil.AddMonths(date, int(dir))
	case ViewWeek:
		return timeutil.AddWeeks(date, int(dir))
	default:
		return timeutil.AddDays(date, int(dir))
	}
}

const rangeDateFormat = "Jan 2, 2006"

// RangeText returns the header label for the period containing date.
func RangeText(view View, date time.Time, ws timeutil.WeekStart) string {
	var start, end time.Time
	switch view {
	case ViewMonth:
		start, end = timeutil.StartOfMonth(date), timeutil.EndOfMonth(date)
	case ViewWeek:
		start, end = timeutil.StartOfWeek(date, ws), timeutil.EndOfWeek(date, ws)
	default:
		return date.Format(rangeDateFormat)
	}
	return start.Format(rangeDateFormat) + " - " + end.Format(rangeDateFormat)
}

// VisibleRange returns the first and last instant shown by view for date.
func VisibleRange(view View, date time.Time, ws timeutil.WeekStart) (time.Time, time.Time) {
	switch view {
	case ViewMonth:
		return timeutil.StartOfMonth(date), timeutil.EndOfMonth(date)
	case ViewWeek:
		return timeutil.StartOfWeek(date, ws), timeutil.EndOfWeek(date, ws)
	default:
		return timeutil.StartOfDay(date), timeutil.EndOfDay(date)
	}
}

// EventsCount counts the events whose start falls in the same period as
// date. For day and week views with boundaries, an event must also intersect
// the visible hours of its start day.
func EventsCount(events []calendar.Event, date time.Time, view View, ws timeutil.WeekStart, b *DayBoundaries) int {
	inPeriod := func(t time.Time) bool {
		switch view {
		case ViewMonth:
			return timeutil.SameMonth(date, t)
		case ViewWeek:
			return timeutil.SameWeek(date, t, ws)
		default:
			return timeutil.SameDay(date, t)
		}
	}

	n := 0
	for _, ev := range events {
		if !inPeriod(ev.Start) {
			continue
		}
		if b != nil && view != ViewMonth && !VisibleInWindow(ev, ev.Start.In(date.Location()), b) {
			continue
		}
		n++
	}
	return n
}

// EventsInRange returns the events intersecting [start, end], keeping order.
// end is inclusive to match the period ends returned by VisibleRange.
func EventsInRange(events []calendar.Event, start, end time.Time) []calendar.Event {
	var out []calendar.Event
	for _, ev := range events {
		if EventOverlapsRange(&ev, start, end.Add(time.Nanosecond)) {
			out = append(out, ev)
		}
	}
	return out
}

// DayEvents returns the events that start or end on day, the set drawn in a
// day or week column.
func DayEvents(events []calendar.Event, day time.Time) []calendar.Event {
	var out []calendar.Event
	for _, ev := range events {
		if timeutil.SameDay(day, ev.Start) || timeutil.SameDay(day, lastTouchedDay(ev, day.Location())) {
			out = append(out, ev)
		}
	}
	return out
}

// ClipToDay returns a copy of ev limited to day, so an event that crosses
// midnight is drawn in each column from the top or down to the bottom.
func ClipToDay(ev calendar.Event, day time.Time) calendar.Event {
	start := timeutil.StartOfDay(day)
	end := timeutil.NextDay(start)
	clipped := ev
	if clipped.Start.Before(start) {
		clipped.Start = start
	}
	if clipped.End.After(end) {
		clipped.End = end
	}
	if clipped.End.Before(clipped.Start) {
		clipped.End = clipped.Start
	}
	return clipped
}

// HappeningNow returns the events running at now, ends included.
func HappeningNow(events []calendar.Event, now time.Time) []calendar.Event {
	var out []calendar.Event
	for _, ev := range events {
		if ev.IsOngoing(now) {
			out = append(out, ev)
		}
	}
	return out
}
