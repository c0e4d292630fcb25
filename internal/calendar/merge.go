package calendar

import (
	"sort"
)

// Merge combines events from multiple sources into a single slice.
// Events are sorted by start time, then by ID so the order does not depend on
// which source was read first. Copies of an event (same ID, start and end)
// found in more than one set are kept once, from the earliest set.
func Merge(eventSets ...[]Event) []Event {
	type key struct {
		id         string
		start, end int64
	}

	var all []Event
	seen := make(map[key]bool)
	for _, events := range eventSets {
		for _, e := range events {
			k := key{e.ID, e.Start.UnixNano(), e.End.UnixNano()}
			if seen[k] {
				continue
			}
			seen[k] = true
			all = append(all, e)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Start.Equal(all[j].Start) {
			return all[i].Start.Before(all[j].Start)
		}
		return all[i].ID < all[j].ID
	})

	return all
}
