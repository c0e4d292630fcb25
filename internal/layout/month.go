package layout

import (
	"sort"
	"time"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/timeutil"
)

// MaxEventStack is the default number of stacked event rows in a month cell.
const MaxEventStack = 3

// NoSlot marks an event that did not get a stacking slot.
const NoSlot = -1

// SlotAssignment maps events to month-view stacking slots. It is only
// meaningful for the month it was computed for.
type SlotAssignment struct {
	Month time.Time `json:"month"`
	// Slots is keyed by SlotKey.
	Slots map[string]int `json:"slots"`
}

// Slot returns the slot of ev, or NoSlot.
func (a SlotAssignment) Slot(ev calendar.Event) int {
	if s, ok := a.Slots[SlotKey(ev)]; ok {
		return s
	}
	return NoSlot
}

// SlotKey identifies an event in a SlotAssignment. Recurring occurrences and
// other events that share an ID but not their times get distinct keys; exact
// copies of one event share a key and are laid out once.
func SlotKey(ev calendar.Event) string {
	return ev.ID + "@" + ev.Start.UTC().Format(time.RFC3339Nano) + "/" + ev.End.UTC().Format(time.RFC3339Nano)
}

// Allocator stacks events in month cells.
type Allocator struct {
	// MaxStack is the number of slots per day. Zero means MaxEventStack.
	MaxStack int
}

func (a Allocator) maxStack() int {
	if a.MaxStack <= 0 {
		return MaxEventStack
	}
	return a.MaxStack
}

// Assign gives each event a slot that it keeps on every day of selected's
// month it touches, such that no two events share a slot on a shared day.
//
// Multi-day events are placed first, longest first, so wide bars take the
// low slots; single-day events follow by start time. An event that finds no
// slot free on all of its days, or that does not touch the month, is left
// unassigned and only shows up in the overflow count.
func (a Allocator) Assign(events []calendar.Event, selected time.Time) SlotAssignment {
	monthStart := timeutil.StartOfMonth(selected)
	days := timeutil.DaysInMonth(selected)
	stack := a.maxStack()

	occupied := make([][]bool, days)
	for i := range occupied {
		occupied[i] = make([]bool, stack)
	}

	assignment := SlotAssignment{
		Month: monthStart,
		Slots: make(map[string]int),
	}

	seen := make(map[string]bool, len(events))
	for _, ev := range sortForMonth(events, monthStart.Location()) {
		key := SlotKey(ev)
		if seen[key] {
			continue
		}
		seen[key] = true

		first, last, ok := touchedDays(ev, monthStart, days)
		if !ok {
			continue
		}

		slot := NoSlot
		for s := 0; s < stack && slot == NoSlot; s++ {
			free := true
			for d := first; d <= last; d++ {
				if occupied[d][s] {
					free = false
					break
				}
			}
			if free {
				slot = s
			}
		}
		if slot == NoSlot {
			continue
		}

		for d := first; d <= last; d++ {
			occupied[d][slot] = true
		}
		assignment.Slots[key] = slot
	}

	return assignment
}

// touchedDays returns the zero-based month day indexes of the first and last
// day ev touches, clipped to the month.
func touchedDays(ev calendar.Event, monthStart time.Time, days int) (int, int, bool) {
	loc := monthStart.Location()
	firstDay := timeutil.StartOfDay(ev.Start.In(loc))
	lastDay := lastTouchedDay(ev, loc)

	first := timeutil.DaysBetween(monthStart, firstDay)
	last := timeutil.DaysBetween(monthStart, lastDay)
	if last < 0 || first >= days {
		return 0, 0, false
	}
	return max(first, 0), min(last, days-1), true
}

// lastTouchedDay is the day holding the final instant of ev. Ends are
// exclusive, so an event ending at midnight does not touch the next day.
func lastTouchedDay(ev calendar.Event, loc *time.Location) time.Time {
	end := ev.End.In(loc)
	if end.After(ev.Start) {
		end = end.Add(-time.Nanosecond)
	}
	return timeutil.StartOfDay(end)
}

// SpanDays returns how many calendar days ev touches in its start's location.
func SpanDays(ev calendar.Event) int {
	return spanDaysIn(ev, ev.Start.Location())
}

func spanDaysIn(ev calendar.Event, loc *time.Location) int {
	return timeutil.DaysBetween(timeutil.StartOfDay(ev.Start.In(loc)), lastTouchedDay(ev, loc)) + 1
}

// IsMultiDay reports whether ev touches more than one calendar day.
func IsMultiDay(ev calendar.Event) bool {
	return SpanDays(ev) > 1
}

// SplitByDuration separates single-day from multi-day events, keeping order.
func SplitByDuration(events []calendar.Event) (single, multi []calendar.Event) {
	for _, ev := range events {
		if IsMultiDay(ev) {
			multi = append(multi, ev)
		} else {
			single = append(single, ev)
		}
	}
	return single, multi
}

// sortForMonth orders events for slot allocation: multi-day events first by
// descending span then start, then single-day events by start. Ties break on ID.
// Spans are counted in loc, the location days are allocated in.
func sortForMonth(events []calendar.Event, loc *time.Location) []calendar.Event {
	type keyed struct {
		ev   calendar.Event
		span int
	}
	ks := make([]keyed, len(events))
	for i, ev := range events {
		ks[i] = keyed{ev: ev, span: spanDaysIn(ev, loc)}
	}

	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		aMulti, bMulti := a.span > 1, b.span > 1
		if aMulti != bMulti {
			return aMulti
		}
		if aMulti && a.span != b.span {
			return a.span > b.span
		}
		if !a.ev.Start.Equal(b.ev.Start) {
			return a.ev.Start.Before(b.ev.Start)
		}
		return a.ev.ID < b.ev.ID
	})

	sorted := make([]calendar.Event, len(ks))
	for i, k := range ks {
		sorted[i] = k.ev
	}
	return sorted
}

// SlottedEvent is an event shown in a month cell with its stacking slot.
type SlottedEvent struct {
	Event    calendar.Event `json:"event"`
	Slot     int            `json:"slot"`
	Position SpanPosition   `json:"position"`
}

// CellEvents are the events of one month cell.
type CellEvents struct {
	// Events are the events with a slot, ordered by slot.
	Events []SlottedEvent `json:"events"`
	// Overflow counts events on the day that have no slot ("+N more").
	Overflow int `json:"overflow"`
}

// CellEvents returns the events touching day with their slots from
// assignment, ordered by slot. Events without a slot are only counted.
// Exact copies of an event are shown once.
func (a Allocator) CellEvents(day time.Time, events []calendar.Event, assignment SlotAssignment) CellEvents {
	start := timeutil.StartOfDay(day)
	end := timeutil.NextDay(start)

	cell := CellEvents{Events: []SlottedEvent{}}
	seen := make(map[string]bool)
	for _, ev := range events {
		if !EventOverlapsRange(&ev, start, end) {
			continue
		}
		key := SlotKey(ev)
		if seen[key] {
			continue
		}
		seen[key] = true
		slot := assignment.Slot(ev)
		if slot == NoSlot {
			cell.Overflow++
			continue
		}
		cell.Events = append(cell.Events, SlottedEvent{
			Event:    ev,
			Slot:     slot,
			Position: PositionOn(ev, day),
		})
	}

	sort.SliceStable(cell.Events, func(i, j int) bool {
		a, b := &cell.Events[i], &cell.Events[j]
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		if !a.Event.Start.Equal(b.Event.Start) {
			return a.Event.Start.Before(b.Event.Start)
		}
		return a.Event.ID < b.Event.ID
	})
	return cell
}

// SpanPosition describes which part of a multi-day bar a cell shows.
type SpanPosition string

const (
	SpanNone   SpanPosition = "none"
	SpanFirst  SpanPosition = "first"
	SpanMiddle SpanPosition = "middle"
	SpanLast   SpanPosition = "last"
)

// PositionOn returns the part of ev's bar drawn on day. Single-day events
// are always SpanNone.
func PositionOn(ev calendar.Event, day time.Time) SpanPosition {
	loc := day.Location()
	first := timeutil.StartOfDay(ev.Start.In(loc))
	last := lastTouchedDay(ev, loc)
	d := timeutil.StartOfDay(day)

	switch {
	case first.Equal(last):
		return SpanNone
	case d.Equal(first):
		return SpanFirst
	case d.Equal(last):
		return SpanLast
	default:
		return SpanMiddle
	}
}
