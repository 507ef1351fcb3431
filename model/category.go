package model

import (
	"fmt"
	"strings"
)

// Category is the closed set of structure kinds the allocator distinguishes.
type Category uint8

const (
	Other Category = iota
	Container
	Road
	Extension
	Spawn
	Storage
	Link
	Tower
	Lab
	Terminal
	Rampart
	Wall
)

var categoryNames = [...]string{
	Other:     "other",
	Container: "container",
	Road:      "road",
	Extension: "extension",
	Spawn:     "spawn",
	Storage:   "storage",
	Link:      "link",
	Tower:     "tower",
	Lab:       "lab",
	Terminal:  "terminal",
	Rampart:   "rampart",
	Wall:      "wall",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// IsBarrier reports whether hits on this category are capped by the
// controller-level ceiling rather than HitsMax alone.
func (c Category) IsBarrier() bool {
	return c == Rampart || c == Wall
}

// ParseCategory maps a wire name to a Category. Unknown names are Other so a
// mod that reports new structure kinds never breaks decoding.
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == s {
			return Category(i)
		}
	}
	return Other
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}

// barrierCeilings caps barrier hits by controller level 0..8.
var barrierCeilings = [...]int{
	0,
	0,
	10_000,
	50_000,
	200_000,
	1_000_000,
	5_000_000,
	10_000_000,
	20_000_000,
}

// MaxLevel is the highest controller level.
const MaxLevel = len(barrierCeilings) - 1

// BarrierCeiling returns the hits ceiling for barriers at the given level.
// Levels outside 0..MaxLevel clamp to the nearest end of the table.
func BarrierCeiling(level int) int {
	if level < 0 {
		level = 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return barrierCeilings[level]
}
