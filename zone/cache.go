// Package zone keeps the per-tick snapshot of every territory the mod reports.
package zone

import (
	"log/slog"
	"slices"

	"github.com/nstehr/vimy/vimy-defense/model"
)

// Cache holds the latest snapshot for each observable territory. A territory
// is observable only if the most recent update reported it; anything older is
// dropped rather than served stale.
type Cache struct {
	tick  int
	snaps map[string]*model.Snapshot
	order []string
}

// Change lists territories that appeared or disappeared with an update.
type Change struct {
	Gained []string
	Lost   []string
}

func NewCache() *Cache {
	return &Cache{snaps: make(map[string]*model.Snapshot)}
}

// Update replaces the cache contents with the territories of one tick.
func (c *Cache) Update(tick int, territories []model.Territory) Change {
	next := make(map[string]*model.Snapshot, len(territories))
	for _, t := range territories {
		if t.Name == "" {
			slog.Warn("territory without name ignored", "tick", tick)
			continue
		}
		next[t.Name] = model.NewSnapshot(tick, t)
	}

	var ch Change
	for name := range next {
		if _, ok := c.snaps[name]; !ok {
			ch.Gained = append(ch.Gained, name)
		}
	}
	for name := range c.snaps {
		if _, ok := next[name]; !ok {
			ch.Lost = append(ch.Lost, name)
		}
	}
	slices.Sort(ch.Gained)
	slices.Sort(ch.Lost)

	order := make([]string, 0, len(next))
	for name := range next {
		order = append(order, name)
	}
	slices.Sort(order)

	c.tick = tick
	c.snaps = next
	c.order = order
	return ch
}

func (c *Cache) Tick() int { return c.tick }

// Territories returns observable territory names in a stable order.
func (c *Cache) Territories() []string { return c.order }

// Snapshot returns the territory's view for the current tick, or false if the
// territory is not observable.
func (c *Cache) Snapshot(name string) (*model.Snapshot, bool) {
	s, ok := c.snaps[name]
	return s, ok
}
