// Package layout computes where calendar events go on screen.
//
// Everything in this package is a pure function of its arguments: no I/O, no
// clocks, no shared state. Functions are safe to call concurrently.
package layout

import (
	"time"

	"github.com/cpuguy83/calgrid/internal/calendar"
)

// Overlaps reports whether two intervals intersect.
//
// Intervals are half-open: an event ending at 10:00 does not overlap one
// starting at 10:00. A zero-duration interval is a point p that overlaps
// [s,e) iff s <= p < e; two points overlap iff they are equal.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	p1 := !e1.After(s1)
	p2 := !e2.After(s2)
	switch {
	case p1 && p2:
		return s1.Equal(s2)
	case p1:
		return contains(s2, e2, s1)
	case p2:
		return contains(s1, e1, s2)
	default:
		return s1.Before(e2) && s2.Before(e1)
	}
}

func contains(s, e, p time.Time) bool {
	return !p.Before(s) && p.Before(e)
}

// EventsOverlap applies Overlaps to two events.
func EventsOverlap(a, b *calendar.Event) bool {
	return Overlaps(a.Start, a.End, b.Start, b.End)
}

// EventOverlapsRange reports whether ev intersects [start, end).
func EventOverlapsRange(ev *calendar.Event, start, end time.Time) bool {
	return Overlaps(ev.Start, ev.End, start, end)
}
