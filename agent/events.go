package agent

import (
	"fmt"
	"slices"

	"github.com/nstehr/vimy/vimy-defense/model"
	"github.com/nstehr/vimy/vimy-defense/zone"
)

// EventKind identifies a territory-level change between two consecutive ticks.
type EventKind string

const (
	EventTerritoryGained EventKind = "territory_gained"
	EventTerritoryLost   EventKind = "territory_lost"
	EventHostilesArrived EventKind = "hostiles_arrived"
	EventHostilesCleared EventKind = "hostiles_cleared"
)

// Event is a significant change detected by diffing consecutive zone updates.
type Event struct {
	Kind      EventKind
	Tick      int
	Territory string
	Detail    string
}

// tickSnapshot captures the diffable fields of one zone update.
type tickSnapshot struct {
	hostiles map[string]int // territory -> hostile units present
}

// takeSnapshot counts hostile units per observable territory.
func takeSnapshot(zones *zone.Cache, hostile func(model.Owned) bool) tickSnapshot {
	snap := tickSnapshot{hostiles: make(map[string]int)}
	for _, name := range zones.Territories() {
		s, ok := zones.Snapshot(name)
		if !ok {
			continue
		}
		n := 0
		for _, u := range s.Foreign {
			if hostile(u) {
				n++
			}
		}
		snap.hostiles[name] = n
	}
	return snap
}

// detectEvents compares the current update against the previous snapshot.
// A nil prev behaves like an empty empire, so the first tick reports every
// territory as gained and any hostiles already present as arrived.
func detectEvents(tick int, change zone.Change, cur tickSnapshot, prev *tickSnapshot) []Event {
	var before map[string]int
	if prev != nil {
		before = prev.hostiles
	}

	var events []Event
	for _, name := range change.Gained {
		events = append(events, Event{Kind: EventTerritoryGained, Tick: tick, Territory: name})
	}
	for _, name := range change.Lost {
		events = append(events, Event{Kind: EventTerritoryLost, Tick: tick, Territory: name})
	}

	names := make([]string, 0, len(cur.hostiles))
	for name := range cur.hostiles {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		n := cur.hostiles[name]
		if n > 0 && before[name] == 0 {
			events = append(events, Event{
				Kind:      EventHostilesArrived,
				Tick:      tick,
				Territory: name,
				Detail:    fmt.Sprintf("%d hostile units", n),
			})
		}
		if n == 0 && before[name] > 0 {
			events = append(events, Event{Kind: EventHostilesCleared, Tick: tick, Territory: name})
		}
	}
	return events
}
