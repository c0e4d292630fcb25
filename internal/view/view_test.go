package view

import (
	"errors"
	"testing"
	"time"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/layout"
	"github.com/cpuguy83/calgrid/internal/timeutil"
)

func at(d, h, m int) time.Time {
	return time.Date(2026, time.April, d, h, m, 0, 0, time.UTC)
}

func ev(id string, start, end time.Time) calendar.Event {
	return calendar.Event{ID: id, Title: id, Start: start, End: end, Color: calendar.ColorBlue}
}

func blockByID(blocks []Block, id string) (Block, bool) {
	for _, b := range blocks {
		if b.Event.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

func TestBuildDay(t *testing.T) {
	events := []calendar.Event{
		ev("e1", at(15, 9, 0), at(15, 10, 0)),
		ev("e2", at(15, 9, 30), at(15, 10, 30)),
		ev("e3", at(15, 10, 0), at(15, 11, 0)),
		ev("early", at(15, 6, 0), at(15, 7, 0)),
		ev("tomorrow", at(16, 9, 0), at(16, 10, 0)),
		{ID: "holiday", Title: "holiday", Start: at(15, 0, 0), End: at(16, 0, 0), AllDay: true},
	}
	s := Settings{
		WeekStart:  timeutil.Sunday,
		Boundaries: &layout.DayBoundaries{StartHour: 8, EndHour: 18},
		Geometry:   layout.DefaultGeometry(),
		Now:        at(15, 9, 0),
	}

	l, err := Build(layout.ViewDay, at(15, 12, 0), events, s)
	if err != nil {
		t.Fatal(err)
	}

	if l.RangeText != "Apr 15, 2026" {
		t.Errorf("RangeText = %q", l.RangeText)
	}
	if l.Height != 11*96 || len(l.Hours) != 11 {
		t.Errorf("Height = %d, Hours = %v", l.Height, l.Hours)
	}
	if len(l.Days) != 1 {
		t.Fatalf("got %d days, want 1", len(l.Days))
	}
	day := l.Days[0]

	if len(day.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3: %+v", len(day.Blocks), day.Blocks)
	}
	wantColumns := map[string]int{"e1": 0, "e2": 1, "e3": 0}
	for id, col := range wantColumns {
		b, ok := blockByID(day.Blocks, id)
		if !ok {
			t.Errorf("no block for %s", id)
			continue
		}
		if b.Column != col || b.TotalColumns != 2 {
			t.Errorf("%s at column %d of %d, want %d of 2", id, b.Column, b.TotalColumns, col)
		}
	}

	e2, _ := blockByID(day.Blocks, "e2")
	want := layout.Style{Top: "144px", Height: "96px", Left: "50%", Width: "50%"}
	if e2.Style != want {
		t.Errorf("e2 style = %+v, want %+v", e2.Style, want)
	}

	if len(day.Banners) != 1 || day.Banners[0].Event.ID != "holiday" {
		t.Errorf("Banners = %+v", day.Banners)
	}
	if day.Timeline == nil || *day.Timeline != 96 {
		t.Errorf("Timeline = %v, want 96", day.Timeline)
	}
}

func TestBuildWeek(t *testing.T) {
	events := []calendar.Event{
		ev("overnight", at(14, 22, 0), at(15, 2, 0)),
		ev("trip", at(13, 12, 0), at(16, 12, 0)),
		ev("next-week", at(21, 9, 0), at(21, 10, 0)),
	}
	s := Settings{WeekStart: timeutil.Monday, Geometry: layout.DefaultGeometry()}

	l, err := Build(layout.ViewWeek, at(15, 0, 0), events, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Days) != 7 {
		t.Fatalf("got %d days, want 7", len(l.Days))
	}
	if l.Headers[0] != "Mon" {
		t.Errorf("Headers = %v", l.Headers)
	}
	if l.Count != 2 {
		t.Errorf("Count = %d, want 2", l.Count)
	}

	// Monday 13th .. Sunday 19th.
	tue, wed := l.Days[1], l.Days[2]
	if b, ok := blockByID(tue.Blocks, "overnight"); !ok || b.Geometry.Top != 22*96 || b.Geometry.Height != 2*96 {
		t.Errorf("tuesday overnight block = %+v, %v", b.Geometry, ok)
	}
	if b, ok := blockByID(wed.Blocks, "overnight"); !ok || b.Geometry.Top != 0 || b.Geometry.Height != 2*96 {
		t.Errorf("wednesday overnight block = %+v, %v", b.Geometry, ok)
	}

	wantPos := []layout.SpanPosition{layout.SpanFirst, layout.SpanMiddle, layout.SpanMiddle, layout.SpanLast}
	for i, pos := range wantPos {
		banners := l.Days[i].Banners
		if len(banners) != 1 || banners[0].Event.ID != "trip" || banners[0].Position != pos {
			t.Errorf("day %d banners = %+v, want trip %s", i, banners, pos)
		}
	}
	if len(l.Days[4].Banners) != 0 {
		t.Errorf("friday banners = %+v", l.Days[4].Banners)
	}
	for _, d := range l.Days {
		if d.Timeline != nil {
			t.Errorf("timeline shown without Now on %v", d.Date)
		}
	}
}

func TestBuildMonth(t *testing.T) {
	events := []calendar.Event{
		ev("trip", at(6, 12, 0), at(8, 12, 0)),
		ev("a", at(7, 8, 0), at(7, 9, 0)),
		ev("b", at(7, 9, 0), at(7, 10, 0)),
		ev("c", at(7, 10, 0), at(7, 11, 0)),
		ev("spill", at(30, 20, 0), time.Date(2026, time.May, 2, 9, 0, 0, 0, time.UTC)),
	}
	s := Settings{WeekStart: timeutil.Monday}

	l, err := Build(layout.ViewMonth, at(15, 0, 0), events, s)
	if err != nil {
		t.Fatal(err)
	}
	m := l.Month
	if m == nil {
		t.Fatal("Month is nil")
	}
	if len(m.Cells) != 35 || !m.Cells[0].Date.Equal(time.Date(2026, time.March, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("cells = %d starting %v", len(m.Cells), m.Cells[0].Date)
	}
	if m.MaxStack != layout.MaxEventStack {
		t.Errorf("MaxStack = %d", m.MaxStack)
	}
	if l.RangeText != "Apr 1, 2026 - Apr 30, 2026" {
		t.Errorf("RangeText = %q", l.RangeText)
	}

	// April 7th is the ninth cell.
	cell := m.Cells[8]
	if cell.Day != 7 || !cell.CurrentMonth {
		t.Fatalf("cell 8 = %+v", cell.CalendarCell)
	}
	if len(cell.Events) != 3 || cell.Events[0].Event.ID != "trip" || cell.Overflow != 1 {
		t.Errorf("April 7 cell = %+v", cell.CellEvents)
	}

	// The bar spilling into May keeps its slot in the trailing cells.
	may1 := m.Cells[32]
	if may1.CurrentMonth || len(may1.Events) != 1 || may1.Events[0].Event.ID != "spill" {
		t.Errorf("May 1 cell = %+v", may1)
	}
	if may1.Events[0].Position != layout.SpanMiddle {
		t.Errorf("May 1 position = %s", may1.Events[0].Position)
	}
}

func TestBuildErrors(t *testing.T) {
	valid := []calendar.Event{ev("ok", at(15, 9, 0), at(15, 10, 0))}

	tests := []struct {
		name    string
		view    layout.View
		events  []calendar.Event
		s       Settings
		wantErr error
	}{
		{"unknown view", "year", valid, Settings{}, layout.ErrUnknownView},
		{"bad boundaries", layout.ViewDay, valid, Settings{Boundaries: &layout.DayBoundaries{StartHour: 20, EndHour: 8}}, layout.ErrInvalidBoundaries},
		{"bad week start", layout.ViewWeek, valid, Settings{WeekStart: 9}, ErrInvalidSettings},
		{"negative stack", layout.ViewMonth, valid, Settings{Allocator: layout.Allocator{MaxStack: -1}}, ErrInvalidSettings},
		{"end before start", layout.ViewDay, []calendar.Event{ev("bad", at(15, 10, 0), at(15, 9, 0))}, Settings{}, calendar.ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.view, at(15, 0, 0), tt.events, tt.s)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildConvertsToDateLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 07:00 UTC is 09:00 in loc.
	events := []calendar.Event{ev("e", at(15, 7, 0), at(15, 8, 0))}

	l, err := Build(layout.ViewDay, time.Date(2026, time.April, 15, 12, 0, 0, 0, loc), events, Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Days[0].Blocks) != 1 || l.Days[0].Blocks[0].Geometry.Top != 9*96 {
		t.Errorf("blocks = %+v", l.Days[0].Blocks)
	}
}
