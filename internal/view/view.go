// Package view assembles the layout of one calendar screen from a set of
// events: which cells or columns exist and where every event goes.
package view

import (
	"errors"
	"fmt"
	"time"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/layout"
	"github.com/cpuguy83/calgrid/internal/links"
	"github.com/cpuguy83/calgrid/internal/timeutil"
)

// ErrInvalidSettings is returned by Build when Settings fail validation.
var ErrInvalidSettings = errors.New("invalid view settings")

// Settings control how a view is laid out.
type Settings struct {
	WeekStart timeutil.WeekStart
	// Boundaries limits the hours of day and week views. Nil shows the whole day.
	Boundaries *layout.DayBoundaries
	Geometry   layout.Geometry
	Allocator  layout.Allocator
	// Now places the current-time indicator. Zero hides it.
	Now time.Time
}

// Validate checks the settings.
func (s Settings) Validate() error {
	if !s.WeekStart.Valid() {
		return fmt.Errorf("%w: week start %d", ErrInvalidSettings, int(s.WeekStart))
	}
	if s.Boundaries != nil {
		if err := s.Boundaries.Validate(); err != nil {
			return err
		}
	}
	if s.Geometry.CellHeight < 0 {
		return fmt.Errorf("%w: negative cell height %d", ErrInvalidSettings, s.Geometry.CellHeight)
	}
	if s.Allocator.MaxStack < 0 {
		return fmt.Errorf("%w: negative max stack %d", ErrInvalidSettings, s.Allocator.MaxStack)
	}
	return nil
}

// Layout is everything needed to draw one screen.
type Layout struct {
	View      layout.View `json:"view"`
	Date      time.Time   `json:"date"`
	RangeText string      `json:"rangeText"`
	// Count is the number of events starting in the period.
	Count   int      `json:"count"`
	Headers []string `json:"headers"`

	// Month is set for the month view.
	Month *Month `json:"month,omitempty"`

	// Hours, Height and Days are set for the day and week views.
	Hours  []int `json:"hours,omitempty"`
	Height int   `json:"height,omitempty"`
	Days   []Day `json:"days,omitempty"`
}

// Month is the month grid.
type Month struct {
	MaxStack   int                  `json:"maxStack"`
	Assignment layout.SlotAssignment `json:"assignment"`
	Cells      []MonthCell          `json:"cells"`
}

// MonthCell is one day of the month grid with its events.
type MonthCell struct {
	layout.CalendarCell
	layout.CellEvents
}

// Day is one column of the day or week view.
type Day struct {
	Date time.Time `json:"date"`
	// Banners are all-day and day-long events, drawn above the time grid.
	Banners []Banner `json:"banners"`
	// Blocks are the timed events placed on the grid.
	Blocks []Block `json:"blocks"`
	// Timeline is the pixel offset of the current-time indicator, if shown.
	Timeline *int `json:"timeline,omitempty"`
}

// Banner is an event drawn in the header row of a day column.
type Banner struct {
	Event    calendar.Event      `json:"event"`
	Position layout.SpanPosition `json:"position"`
}

// Block is an event positioned on the time grid.
type Block struct {
	Event        calendar.Event     `json:"event"`
	Column       int                `json:"column"`
	TotalColumns int                `json:"totalColumns"`
	Geometry     layout.Block       `json:"geometry"`
	Style        layout.Style       `json:"style"`
	Traits       layout.BlockTraits `json:"traits"`
	// Link is the meeting URL found in the description, if any.
	Link string `json:"link,omitempty"`
}

// Build lays out events for view v around date. Times are interpreted in
// date's location.
func Build(v layout.View, date time.Time, events []calendar.Event, s Settings) (*Layout, error) {
	if _, err := layout.ParseView(string(v)); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	loc := date.Location()
	local := make([]calendar.Event, 0, len(events))
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("build %s view: %w", v, err)
		}
		e.Start = e.Start.In(loc)
		e.End = e.End.In(loc)
		local = append(local, e)
	}

	l := &Layout{
		View:      v,
		Date:      date,
		RangeText: layout.RangeText(v, date, s.WeekStart),
		Count:     layout.EventsCount(local, date, v, s.WeekStart, s.Boundaries),
	}

	switch v {
	case layout.ViewMonth:
		l.Headers = layout.WeekdayHeaders(s.WeekStart)
		l.Month = buildMonth(date, local, s)
	case layout.ViewWeek:
		l.Headers = layout.WeekdayHeaders(s.WeekStart)
		l.Hours = layout.DisplayHours(s.Boundaries)
		l.Height = s.Geometry.CalendarHeight(s.Boundaries)
		for _, day := range layout.WeekDays(date, s.WeekStart) {
			l.Days = append(l.Days, buildDay(day, local, s))
		}
	default:
		l.Headers = []string{date.Weekday().String()[:3]}
		l.Hours = layout.DisplayHours(s.Boundaries)
		l.Height = s.Geometry.CalendarHeight(s.Boundaries)
		l.Days = []Day{buildDay(timeutil.StartOfDay(date), local, s)}
	}

	return l, nil
}

func buildMonth(date time.Time, events []calendar.Event, s Settings) *Month {
	cells := layout.CalendarCells(date, s.WeekStart)
	first := cells[0].Date
	last := timeutil.EndOfDay(cells[len(cells)-1].Date)
	visible := layout.EventsInRange(events, first, last)

	assignment := s.Allocator.Assign(visible, date)
	m := &Month{
		MaxStack:   s.Allocator.MaxStack,
		Assignment: assignment,
		Cells:      make([]MonthCell, 0, len(cells)),
	}
	if m.MaxStack <= 0 {
		m.MaxStack = layout.MaxEventStack
	}
	for _, c := range cells {
		m.Cells = append(m.Cells, MonthCell{
			CalendarCell: c,
			CellEvents:   s.Allocator.CellEvents(c.Date, visible, assignment),
		})
	}
	return m
}

// isBanner reports whether ev belongs in the header row rather than on the
// time grid.
func isBanner(ev calendar.Event) bool {
	return ev.AllDay || ev.Duration() >= 24*time.Hour
}

func buildDay(day time.Time, events []calendar.Event, s Settings) Day {
	d := Day{
		Date:    day,
		Banners: []Banner{},
		Blocks:  []Block{},
	}

	start := timeutil.StartOfDay(day)
	var timed []calendar.Event
	for _, ev := range layout.EventsInRange(events, start, timeutil.EndOfDay(day)) {
		if isBanner(ev) {
			d.Banners = append(d.Banners, Banner{Event: ev, Position: layout.PositionOn(ev, day)})
		}
	}
	for _, ev := range layout.DayEvents(events, day) {
		if isBanner(ev) {
			continue
		}
		clipped := layout.ClipToDay(ev, day)
		if !layout.VisibleInWindow(clipped, day, s.Boundaries) {
			continue
		}
		timed = append(timed, clipped)
	}

	for _, g := range layout.GroupEvents(timed) {
		for _, pe := range g.Events {
			b := s.Geometry.Block(pe.Event, pe.Column, g.TotalColumns, s.Boundaries)
			d.Blocks = append(d.Blocks, Block{
				Event:        pe.Event,
				Column:       pe.Column,
				TotalColumns: g.TotalColumns,
				Geometry:     b,
				Style:        b.Style(),
				Traits:       layout.TraitsFor(pe.Event),
				Link:         links.Detect(pe.Event.Description),
			})
		}
	}

	if !s.Now.IsZero() && timeutil.SameDay(day, s.Now) {
		if top, ok := s.Geometry.TimelineTop(s.Now.In(day.Location()), s.Boundaries); ok {
			d.Timeline = &top
		}
	}
	return d
}
