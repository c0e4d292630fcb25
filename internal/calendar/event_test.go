package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestIsEffectivelyAllDay(t *testing.T) {
	loc := time.FixedZone("UTC+1", 60*60)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{
			name:  "single day midnight to midnight",
			start: time.Date(2026, 2, 17, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 18, 0, 0, 0, 0, loc),
			want:  true,
		},
		{
			name:  "multi-day midnight to midnight (5 days)",
			start: time.Date(2026, 2, 16, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 21, 0, 0, 0, 0, loc),
			want:  true,
		},
		{
			name:  "start not midnight",
			start: time.Date(2026, 2, 17, 9, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 18, 0, 0, 0, 0, loc),
			want:  false,
		},
		{
			name:  "same time (zero duration)",
			start: time.Date(2026, 2, 17, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 17, 0, 0, 0, 0, loc),
			want:  false,
		},
		{
			name:  "end before start",
			start: time.Date(2026, 2, 18, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 17, 0, 0, 0, 0, loc),
			want:  false,
		},
		{
			name:  "normal timed event",
			start: time.Date(2026, 2, 17, 10, 30, 0, 0, loc),
			end:   time.Date(2026, 2, 17, 11, 30, 0, 0, loc),
			want:  false,
		},
		{
			name:  "midnight in another zone",
			start: time.Date(2026, 2, 17, 0, 0, 0, 0, time.FixedZone("UTC-5", -5*60*60)),
			end:   time.Date(2026, 2, 18, 0, 0, 0, 0, time.FixedZone("UTC-5", -5*60*60)),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isEffectivelyAllDay(tt.start, tt.end, loc)
			if got != tt.want {
				t.Errorf("isEffectivelyAllDay(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr error
	}{
		{name: "utc timestamps", start: "2026-03-02T09:00:00Z", end: "2026-03-02T10:00:00Z"},
		{name: "offset timestamps", start: "2026-03-02T09:00:00+02:00", end: "2026-03-02T09:30:00+02:00"},
		{name: "zero duration accepted", start: "2026-03-02T09:00:00Z", end: "2026-03-02T09:00:00Z"},
		{name: "local without offset", start: "2026-03-02T09:00", end: "2026-03-02T09:15"},
		{name: "malformed start", start: "yesterday", end: "2026-03-02T10:00:00Z", wantErr: ErrInvalidTimestamp},
		{name: "malformed end", start: "2026-03-02T09:00:00Z", end: "2026-13-02T10:00:00Z", wantErr: ErrInvalidTimestamp},
		{name: "end before start", start: "2026-03-02T10:00:00Z", end: "2026-03-02T09:00:00Z", wantErr: ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := NewEvent("e1", "Standup", tt.start, tt.end, ColorBlue)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewEvent error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEvent error = %v", err)
			}
			if ev.End.Before(ev.Start) {
				t.Errorf("event end %v before start %v", ev.End, ev.Start)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	for _, c := range Palette {
		got, err := ParseColor(string(c))
		if err != nil || got != c {
			t.Errorf("ParseColor(%q) = %q, %v", c, got, err)
		}
	}
	if got, err := ParseColor(" Emerald "); err != nil || got != ColorEmerald {
		t.Errorf("ParseColor(\" Emerald \") = %q, %v", got, err)
	}
	if _, err := ParseColor("green"); !errors.Is(err, ErrUnknownColor) {
		t.Errorf("ParseColor(\"green\") error = %v, want ErrUnknownColor", err)
	}
}

func TestMergeOrdersByStartThenID(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 1, 5, h, 0, 0, 0, time.UTC) }

	a := []Event{{ID: "b", Start: at(10)}, {ID: "c", Start: at(9)}}
	b := []Event{{ID: "a", Start: at(10)}}

	got := Merge(a, b)
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Merge returned %d events, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("Merge()[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestMergeDropsCopies(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	invite := Event{ID: "uid-1", Start: start, End: start.Add(time.Hour), Source: "personal"}
	shared := invite
	shared.Source = "shared"
	moved := invite
	moved.Start = start.Add(5 * time.Hour)
	moved.End = moved.Start.Add(time.Hour)

	got := Merge([]Event{invite}, []Event{shared, moved})
	if len(got) != 2 {
		t.Fatalf("Merge returned %d events, want 2: %+v", len(got), got)
	}
	if got[0].Source != "personal" {
		t.Errorf("kept copy from %q, want the first set", got[0].Source)
	}
	if !got[1].Start.Equal(moved.Start) {
		t.Errorf("Merge()[1].Start = %v, want %v", got[1].Start, moved.Start)
	}
}
