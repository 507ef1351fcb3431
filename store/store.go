// Package store persists per-territory allocation records between sessions.
package store

import (
	"context"
	"fmt"

	"github.com/nstehr/vimy/vimy-defense/defense"
)

// Store saves and restores the allocator's records, scoped by player so
// several sessions can share one store. Save replaces the player's whole set.
type Store interface {
	Load(ctx context.Context, player string) (map[string]defense.Record, error)
	Save(ctx context.Context, player string, tick int, records map[string]defense.Record) error
	Close() error
}

// Open returns the store for driver: "sqlite", "file", or "none".
func Open(driver, path string) (Store, error) {
	switch driver {
	case "sqlite":
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "file":
		return NewFile(path), nil
	case "", "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown state driver %q", driver)
	}
}

// Nop keeps nothing; every session starts cold.
type Nop struct{}

func (Nop) Load(context.Context, string) (map[string]defense.Record, error) {
	return map[string]defense.Record{}, nil
}

func (Nop) Save(context.Context, string, int, map[string]defense.Record) error { return nil }

func (Nop) Close() error { return nil }
