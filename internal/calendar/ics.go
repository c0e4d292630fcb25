package calendar

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

const defaultMaxOccurrences = 5000

// propColor is the RFC 7986 COLOR property.
const propColor = "COLOR"

// idNamespace seeds the name-based UUIDs generated for events without a UID.
var idNamespace = uuid.MustParse("6f1c7a2e-3d8b-5c1e-9a43-0b7e2f9d4c15")

// ParseOptions controls how iCalendar data is turned into events.
type ParseOptions struct {
	// Source is recorded on every event.
	Source string

	// Location is used for floating and date-only values. Nil means time.Local.
	Location *time.Location

	// RangeStart / RangeEnd bound recurrence expansion. Non-recurring events
	// are returned regardless of the range.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrences caps the occurrences generated per recurring event.
	MaxOccurrences int

	// DefaultColor is used when an event carries no COLOR or an unknown one.
	DefaultColor Color

	// DefaultUser is used when an event has no organizer.
	DefaultUser *User
}

func (o *ParseOptions) normalize() {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.MaxOccurrences <= 0 {
		o.MaxOccurrences = defaultMaxOccurrences
	}
	if o.DefaultColor == "" {
		o.DefaultColor = ColorBlue
	}
}

// ReadICS reads events from an ICS file.
func ReadICS(path string, opts ParseOptions) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ICS file: %w", err)
	}
	defer f.Close()

	return ParseICS(f, opts)
}

// ParseICS parses events from an ICS reader, expanding recurring events
// inside the configured range. The result is sorted by start time.
func ParseICS(r io.Reader, opts ParseOptions) ([]Event, error) {
	opts.normalize()
	dec := ics.NewDecoder(r)

	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ics.CompEvent {
				continue
			}

			parsed, err := parseEventComponent(comp, opts)
			if err != nil {
				return nil, err
			}
			events = append(events, parsed...)
		}
	}

	return Merge(events), nil
}

// parseEventComponent converts an ICS VEVENT component to events. Recurring
// components yield one event per occurrence.
func parseEventComponent(comp *ics.Component, opts ParseOptions) ([]Event, error) {
	base := Event{
		Source: opts.Source,
		Color:  opts.DefaultColor,
		User:   opts.DefaultUser,
	}

	if prop := comp.Props.Get(ics.PropUID); prop != nil {
		base.ID = prop.Value
	}
	if prop := comp.Props.Get(ics.PropSummary); prop != nil {
		base.Title = prop.Value
	}
	if prop := comp.Props.Get(ics.PropDescription); prop != nil {
		base.Description = prop.Value
	}
	if prop := comp.Props.Get(propColor); prop != nil {
		if c, err := ParseColor(prop.Value); err == nil {
			base.Color = c
		}
	}
	if prop := comp.Props.Get(ics.PropOrganizer); prop != nil {
		base.User = organizerUser(prop)
	}

	prop := comp.Props.Get(ics.PropDateTimeStart)
	if prop == nil {
		return nil, fmt.Errorf("event %q: missing DTSTART", base.ID)
	}
	start, allDay, err := propTime(prop, opts.Location)
	if err != nil {
		return nil, fmt.Errorf("event %q: parse start time: %w", base.ID, err)
	}

	var duration time.Duration
	switch {
	case comp.Props.Get(ics.PropDateTimeEnd) != nil:
		end, _, err := propTime(comp.Props.Get(ics.PropDateTimeEnd), opts.Location)
		if err != nil {
			return nil, fmt.Errorf("event %q: parse end time: %w", base.ID, err)
		}
		duration = end.Sub(start)
	case comp.Props.Get(ics.PropDuration) != nil:
		d, err := comp.Props.Get(ics.PropDuration).Duration()
		if err != nil {
			return nil, fmt.Errorf("event %q: parse duration: %w", base.ID, err)
		}
		duration = d
	case allDay:
		duration = 24 * time.Hour
	}
	if duration < 0 {
		return nil, fmt.Errorf("event %q: %w", base.ID, ErrEndBeforeStart)
	}

	if base.ID == "" {
		base.ID = syntheticID(opts.Source, base.Title, start)
	}

	rset, err := comp.RecurrenceSet(opts.Location)
	if err != nil {
		return nil, fmt.Errorf("event %q: parse recurrence: %w", base.ID, err)
	}

	if rset == nil {
		base.Start = start
		base.End = start.Add(duration)
		base.AllDay = allDay || isEffectivelyAllDay(base.Start, base.End, opts.Location)
		return []Event{base}, nil
	}

	return expandOccurrences(base, rset, duration, allDay, opts), nil
}

// expandOccurrences materializes a recurring event inside the option range.
// The range is widened by the duration so occurrences that started before
// RangeStart but are still running are kept.
func expandOccurrences(base Event, rset *rrule.Set, duration time.Duration, allDay bool, opts ParseOptions) []Event {
	if opts.RangeStart.IsZero() || opts.RangeEnd.IsZero() {
		return nil
	}

	occurrences := rset.Between(opts.RangeStart.Add(-duration), opts.RangeEnd, true)
	if len(occurrences) > opts.MaxOccurrences {
		occurrences = occurrences[:opts.MaxOccurrences]
	}

	events := make([]Event, 0, len(occurrences))
	for _, occ := range occurrences {
		event := base
		event.Start = occ
		event.End = occ.Add(duration)
		event.AllDay = allDay || isEffectivelyAllDay(event.Start, event.End, opts.Location)
		// Make ID unique per occurrence
		event.ID = fmt.Sprintf("%s_%d", base.ID, occ.Unix())
		events = append(events, event)
	}
	return events
}

// propTime parses a DTSTART/DTEND property. Date-only values report allDay.
func propTime(prop *ics.Prop, loc *time.Location) (time.Time, bool, error) {
	if prop.ValueType() == ics.ValueDate {
		t, err := prop.DateTime(loc)
		return t, true, err
	}
	if t, err := prop.DateTime(loc); err == nil {
		return t, false, nil
	}
	// Floating time without TZID
	if t, err := time.ParseInLocation("20060102T150405", prop.Value, loc); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation("20060102", prop.Value, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// organizerUser builds a User from an ORGANIZER property, preferring the CN
// parameter for the display name.
func organizerUser(prop *ics.Prop) *User {
	id := strings.TrimPrefix(strings.TrimPrefix(prop.Value, "mailto:"), "MAILTO:")
	if id == "" {
		return nil
	}
	name := prop.Params.Get(ics.ParamCommonName)
	if name == "" {
		name = id
	}
	return &User{ID: id, Name: name}
}

// syntheticID derives a stable ID for events that have no UID, so repeated
// parses of the same data lay out identically.
func syntheticID(source, title string, start time.Time) string {
	key := source + "\x00" + title + "\x00" + start.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// isEffectivelyAllDay reports whether a timed event covers whole days in loc,
// as exported by some servers (midnight to midnight).
func isEffectivelyAllDay(start, end time.Time, loc *time.Location) bool {
	if !end.After(start) {
		return false
	}
	s := start.In(loc)
	e := end.In(loc)
	return s.Hour() == 0 && s.Minute() == 0 && s.Second() == 0 && s.Nanosecond() == 0 &&
		e.Hour() == 0 && e.Minute() == 0 && e.Second() == 0 && e.Nanosecond() == 0
}
