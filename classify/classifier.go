// Package classify decides whose side a unit or structure is on.
package classify

import (
	"sync"

	"github.com/nstehr/vimy/vimy-defense/model"
)

type Relation int

const (
	Neutral Relation = iota
	Friendly
	Hostile
)

func (r Relation) String() string {
	switch r {
	case Friendly:
		return "friendly"
	case Hostile:
		return "hostile"
	default:
		return "neutral"
	}
}

// Classifier treats the player and its allies as friendly, unowned objects as
// neutral, and every other owner as hostile. The player name is only known
// after the hello handshake, so it is settable.
type Classifier struct {
	mu     sync.RWMutex
	self   string
	allies map[string]bool
}

func New(self string, allies []string) *Classifier {
	c := &Classifier{self: self, allies: make(map[string]bool, len(allies))}
	for _, a := range allies {
		c.allies[a] = true
	}
	return c
}

func (c *Classifier) SetSelf(name string) {
	c.mu.Lock()
	c.self = name
	c.mu.Unlock()
}

// SetAllies replaces the ally list.
func (c *Classifier) SetAllies(allies []string) {
	set := make(map[string]bool, len(allies))
	for _, a := range allies {
		set[a] = true
	}
	c.mu.Lock()
	c.allies = set
	c.mu.Unlock()
}

func (c *Classifier) Classify(o model.Owned) Relation {
	owner := o.OwnerName()
	if owner == "" {
		return Neutral
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if owner == c.self || c.allies[owner] {
		return Friendly
	}
	return Hostile
}

func (c *Classifier) IsHostile(o model.Owned) bool {
	return c.Classify(o) == Hostile
}

// HasActiveHealCapability reports whether the unit can currently heal.
func (c *Classifier) HasActiveHealCapability(u model.Unit) bool {
	return u.HealParts > 0 && u.Hits > 0
}
