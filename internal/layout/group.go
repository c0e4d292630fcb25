package layout

import (
	"sort"

	"github.com/cpuguy83/calgrid/internal/calendar"
)

// PositionedEvent is an event with its column inside an overlap group.
type PositionedEvent struct {
	Event  calendar.Event `json:"event"`
	Column int            `json:"column"`
}

// OverlapGroup is one cluster of transitively overlapping events and the
// number of columns needed to draw it without collisions.
type OverlapGroup struct {
	Events       []PositionedEvent `json:"events"`
	TotalColumns int               `json:"totalColumns"`
}

// GroupEvents partitions the events of one day into overlap groups and assigns
// each event a column.
//
// Events are processed by start time, longer events first on ties (so they
// anchor column 0), then by ID. Each event joins the first group holding an
// event it overlaps and takes the first column with no overlapping event.
// This greedy coloring is deterministic; for events sorted by start it uses
// exactly as many columns as the largest set of simultaneous events.
//
// The input slice is not modified. The cost is quadratic in the number of
// events, which is fine for the tens to low hundreds a day holds.
func GroupEvents(events []calendar.Event) []OverlapGroup {
	sorted := sortForColumns(events)

	var clusters [][]calendar.Event
	for _, ev := range sorted {
		placed := false
		for i := range clusters {
			if overlapsAny(&ev, clusters[i]) {
				clusters[i] = append(clusters[i], ev)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []calendar.Event{ev})
		}
	}

	groups := make([]OverlapGroup, 0, len(clusters))
	for _, cluster := range clusters {
		groups = append(groups, assignColumns(cluster))
	}
	return groups
}

// assignColumns colors one cluster, already in processing order.
func assignColumns(cluster []calendar.Event) OverlapGroup {
	// Single event takes full width
	if len(cluster) == 1 {
		return OverlapGroup{
			Events:       []PositionedEvent{{Event: cluster[0], Column: 0}},
			TotalColumns: 1,
		}
	}

	var columns [][]calendar.Event
	positioned := make([]PositionedEvent, 0, len(cluster))
	for _, ev := range cluster {
		col := 0
		for col < len(columns) && overlapsAny(&ev, columns[col]) {
			col++
		}
		if col == len(columns) {
			columns = append(columns, nil)
		}
		columns[col] = append(columns[col], ev)
		positioned = append(positioned, PositionedEvent{Event: ev, Column: col})
	}

	return OverlapGroup{
		Events:       positioned,
		TotalColumns: len(columns),
	}
}

func overlapsAny(ev *calendar.Event, others []calendar.Event) bool {
	for i := range others {
		if EventsOverlap(ev, &others[i]) {
			return true
		}
	}
	return false
}

// sortForColumns returns a copy of events ordered by start, duration
// descending, then ID.
func sortForColumns(events []calendar.Event) []calendar.Event {
	sorted := make([]calendar.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if da, db := a.Duration(), b.Duration(); da != db {
			return da > db
		}
		return a.ID < b.ID
	})
	return sorted
}
