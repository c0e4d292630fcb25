package layout

import (
	"errors"
	"testing"
	"time"
)

func TestBlock(t *testing.T) {
	workday := &DayBoundaries{StartHour: 8, EndHour: 18}

	tests := []struct {
		name          string
		start, end    time.Time
		column, total int
		bounds        *DayBoundaries
		want          Block
	}{
		{
			name:  "start clipped to window",
			start: at(7, 0), end: at(9, 0),
			column: 0, total: 1,
			bounds: workday,
			want:   Block{Top: 0, Height: 96, Left: 0, Width: 100},
		},
		{
			name:  "whole day without boundaries",
			start: at(10, 0), end: at(11, 30),
			column: 0, total: 1,
			want: Block{Top: 960, Height: 144, Left: 0, Width: 100},
		},
		{
			name:  "offset by window start",
			start: at(9, 15), end: at(10, 0),
			column: 1, total: 2,
			bounds: workday,
			want:   Block{Top: 120, Height: 72, Left: 50, Width: 50},
		},
		{
			name:  "end clipped to window",
			start: at(17, 0), end: at(21, 0),
			column: 0, total: 1,
			bounds: workday,
			want:   Block{Top: 864, Height: 192, Left: 0, Width: 100},
		},
		{
			name:  "zero duration gets minimum height",
			start: at(12, 0), end: at(12, 0),
			column: 0, total: 1,
			want: Block{Top: 1152, Height: 48, Left: 0, Width: 100},
		},
		{
			name:  "short event gets minimum height",
			start: at(12, 0), end: at(12, 10),
			column: 0, total: 1,
			want: Block{Top: 1152, Height: 48, Left: 0, Width: 100},
		},
		{
			name:  "end on next day counts as midnight",
			start: at(23, 0), end: at(25, 0),
			column: 0, total: 1,
			want: Block{Top: 2208, Height: 96, Left: 0, Width: 100},
		},
		{
			name:  "zero columns treated as one",
			start: at(9, 0), end: at(10, 0),
			column: 0, total: 0,
			want: Block{Top: 864, Height: 96, Left: 0, Width: 100},
		},
	}

	g := DefaultGeometry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Block(ev("x", tt.start, tt.end), tt.column, tt.total, tt.bounds)
			if got != tt.want {
				t.Errorf("Block() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBlockStyle(t *testing.T) {
	g := DefaultGeometry()
	e := ev("x", at(9, 0), at(10, 0))

	tests := []struct {
		column int
		want   Style
	}{
		{0, Style{Top: "864px", Height: "96px", Left: "0%", Width: "33.333333333333336%"}},
		{1, Style{Top: "864px", Height: "96px", Left: "33.333333333333336%", Width: "33.333333333333336%"}},
		{2, Style{Top: "864px", Height: "96px", Left: "66.66666666666667%", Width: "33.333333333333336%"}},
	}

	for _, tt := range tests {
		got := g.Block(e, tt.column, 3, nil).Style()
		if got != tt.want {
			t.Errorf("column %d: Style() = %+v, want %+v", tt.column, got, tt.want)
		}
	}
}

func TestBlockCustomCellHeight(t *testing.T) {
	g := Geometry{CellHeight: 60}
	got := g.Block(ev("x", at(1, 0), at(1, 45)), 0, 1, nil)
	want := Block{Top: 60, Height: 45, Left: 0, Width: 100}
	if got != want {
		t.Errorf("Block() = %+v, want %+v", got, want)
	}
	if g.MinBlockHeight() != 30 {
		t.Errorf("MinBlockHeight() = %d, want 30", g.MinBlockHeight())
	}
}

func TestDisplayHours(t *testing.T) {
	tests := []struct {
		name       string
		bounds     *DayBoundaries
		wantFirst  int
		wantLast   int
		wantLen    int
		wantHeight int
	}{
		{"nil is whole day", nil, 0, 23, 24, 24 * 96},
		{"workday", &DayBoundaries{StartHour: 8, EndHour: 18}, 8, 18, 11, 11 * 96},
		{"single hour", &DayBoundaries{StartHour: 12, EndHour: 12}, 12, 12, 1, 96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hours := DisplayHours(tt.bounds)
			if len(hours) != tt.wantLen {
				t.Fatalf("len(DisplayHours) = %d, want %d", len(hours), tt.wantLen)
			}
			if hours[0] != tt.wantFirst || hours[len(hours)-1] != tt.wantLast {
				t.Errorf("DisplayHours = %d..%d, want %d..%d", hours[0], hours[len(hours)-1], tt.wantFirst, tt.wantLast)
			}
			if h := DefaultGeometry().CalendarHeight(tt.bounds); h != tt.wantHeight {
				t.Errorf("CalendarHeight = %d, want %d", h, tt.wantHeight)
			}
		})
	}
}

func TestDayBoundariesValidate(t *testing.T) {
	tests := []struct {
		name    string
		bounds  DayBoundaries
		wantErr bool
	}{
		{"workday", DayBoundaries{StartHour: 8, EndHour: 18}, false},
		{"whole day", DayBoundaries{StartHour: 0, EndHour: 23}, false},
		{"single hour", DayBoundaries{StartHour: 5, EndHour: 5}, false},
		{"reversed", DayBoundaries{StartHour: 18, EndHour: 8}, true},
		{"negative", DayBoundaries{StartHour: -1, EndHour: 8}, true},
		{"past midnight", DayBoundaries{StartHour: 0, EndHour: 24}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBoundaries) {
				t.Errorf("Validate() error = %v, want ErrInvalidBoundaries", err)
			}
		})
	}
}

func TestTimelineTop(t *testing.T) {
	workday := &DayBoundaries{StartHour: 8, EndHour: 18}

	tests := []struct {
		name        string
		now         time.Time
		bounds      *DayBoundaries
		wantTop     int
		wantVisible bool
	}{
		{"midday", at(12, 30), workday, 432, true},
		{"window start", at(8, 0), workday, 0, true},
		{"last minute of window", at(18, 59), workday, 1054, true},
		{"before window", at(7, 59), workday, 0, false},
		{"after window", at(19, 0), workday, 0, false},
		{"no boundaries", at(1, 30), nil, 144, true},
	}

	g := DefaultGeometry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top, visible := g.TimelineTop(tt.now, tt.bounds)
			if top != tt.wantTop || visible != tt.wantVisible {
				t.Errorf("TimelineTop(%v) = %d, %v, want %d, %v", tt.now, top, visible, tt.wantTop, tt.wantVisible)
			}
		})
	}
}

func TestVisibleInWindow(t *testing.T) {
	workday := &DayBoundaries{StartHour: 8, EndHour: 18}

	tests := []struct {
		name       string
		start, end time.Time
		bounds     *DayBoundaries
		want       bool
	}{
		{"before window", at(6, 0), at(7, 0), workday, false},
		{"ends at window start", at(7, 0), at(8, 0), workday, false},
		{"crosses window start", at(7, 30), at(8, 30), workday, true},
		{"in last hour", at(18, 30), at(19, 30), workday, true},
		{"after window", at(19, 0), at(20, 0), workday, false},
		{"early morning without boundaries", at(3, 0), at(4, 0), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VisibleInWindow(ev("x", tt.start, tt.end), testDay, tt.bounds); got != tt.want {
				t.Errorf("VisibleInWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTraitsFor(t *testing.T) {
	tests := []struct {
		length time.Duration
		want   BlockTraits
	}{
		{0, BlockTraits{Compact: true, ShowTime: false}},
		{20 * time.Minute, BlockTraits{Compact: true, ShowTime: false}},
		{30 * time.Minute, BlockTraits{Compact: true, ShowTime: true}},
		{35 * time.Minute, BlockTraits{Compact: false, ShowTime: true}},
		{2 * time.Hour, BlockTraits{Compact: false, ShowTime: true}},
	}

	for _, tt := range tests {
		start := at(9, 0)
		if got := TraitsFor(ev("x", start, start.Add(tt.length))); got != tt.want {
			t.Errorf("TraitsFor(%v) = %+v, want %+v", tt.length, got, tt.want)
		}
	}
}
