// Package calendar provides the event type consumed by the layout engine and
// iCalendar ingestion for it.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidTimestamp is returned when an event timestamp cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrEndBeforeStart is returned when an event ends before it starts.
	ErrEndBeforeStart = errors.New("event ends before it starts")

	// ErrUnknownColor is returned for a color outside the palette.
	ErrUnknownColor = errors.New("unknown event color")
)

// Color is one of the fixed event palette colors.
type Color string

const (
	ColorBlue    Color = "blue"
	ColorIndigo  Color = "indigo"
	ColorPink    Color = "pink"
	ColorRed     Color = "red"
	ColorOrange  Color = "orange"
	ColorAmber   Color = "amber"
	ColorEmerald Color = "emerald"
)

// Palette lists every valid color in display order.
var Palette = []Color{ColorBlue, ColorIndigo, ColorPink, ColorRed, ColorOrange, ColorAmber, ColorEmerald}

// ParseColor returns the palette color named s (case-insensitive).
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range Palette {
		if c == p {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

// User is the person an event belongs to.
type User struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Event represents a calendar event.
//
// Events are treated as immutable values: layout code derives positions
// alongside them and never modifies them.
type Event struct {
	// ID uniquely identifies the event within a layout pass.
	ID string `json:"id"`

	// Title is the event title.
	Title string `json:"title"`

	// Start is when the event begins.
	Start time.Time `json:"startDate"`

	// End is when the event ends. It is never before Start; equal means a
	// zero-duration event.
	End time.Time `json:"endDate"`

	// Color is the palette color used to render the event.
	Color Color `json:"color"`

	// Description is the full event description/body.
	Description string `json:"description,omitempty"`

	// User is the owner of the event, if any.
	User *User `json:"user,omitempty"`

	// AllDay indicates this is an all-day event.
	AllDay bool `json:"allDay,omitempty"`

	// Source is the name of the calendar source this event came from.
	Source string `json:"source,omitempty"`
}

// NewEvent builds an event from ISO-8601 timestamps.
// Malformed timestamps and an end before the start are rejected.
func NewEvent(id, title, start, end string, color Color) (Event, error) {
	s, err := ParseTimestamp(start)
	if err != nil {
		return Event{}, fmt.Errorf("event %s start: %w", id, err)
	}
	e, err := ParseTimestamp(end)
	if err != nil {
		return Event{}, fmt.Errorf("event %s end: %w", id, err)
	}
	ev := Event{ID: id, Title: title, Start: s, End: e, Color: color}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without an offset are
// interpreted in time.Local.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// Validate checks the Start <= End invariant.
func (e *Event) Validate() error {
	if e.End.Before(e.Start) {
		return fmt.Errorf("event %s: %w", e.ID, ErrEndBeforeStart)
	}
	return nil
}

// Duration returns the duration of the event.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// IsZeroDuration reports whether the event starts and ends at the same instant.
func (e *Event) IsZeroDuration() bool {
	return e.End.Equal(e.Start)
}

// IsOngoing returns true if the event is happening at now (inclusive of both ends).
func (e *Event) IsOngoing(now time.Time) bool {
	return !now.Before(e.Start) && !now.After(e.End)
}

// StartsIn returns how long until the event starts (negative if already started).
func (e *Event) StartsIn(now time.Time) time.Duration {
	return e.Start.Sub(now)
}
