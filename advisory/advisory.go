// Package advisory answers whether a territory has enough dedicated haulage
// that low-value storage structures may be left partially damaged for a while.
package advisory

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nstehr/vimy/vimy-defense/model"
)

// DefaultCondition holds coverage whenever at least one hauler is present.
const DefaultCondition = `Haulers > 0`

// Snapshots is the slice of the zone cache the advisory reads.
type Snapshots interface {
	Tick() int
	Snapshot(name string) (*model.Snapshot, bool)
}

// Advisory evaluates an operator-supplied expr condition per territory and
// caches the verdict for everyTicks. Calls in between are map lookups.
type Advisory struct {
	src         string
	program     *vm.Program
	every       int
	haulerRoles []string
	zones       Snapshots
	entries     map[string]entry
}

type entry struct {
	value bool
	tick  int
}

func (e entry) stale(tick, every int) bool {
	return tick < e.tick || tick-e.tick >= every
}

// New compiles condition against Env. An empty condition uses DefaultCondition.
func New(condition string, everyTicks int, haulerRoles []string, zones Snapshots) (*Advisory, error) {
	if condition == "" {
		condition = DefaultCondition
	}
	if everyTicks <= 0 {
		everyTicks = 1
	}
	prog, err := expr.Compile(condition, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile advisory condition %q: %w", condition, err)
	}
	return &Advisory{
		src:         condition,
		program:     prog,
		every:       everyTicks,
		haulerRoles: haulerRoles,
		zones:       zones,
		entries:     make(map[string]entry),
	}, nil
}

// HaulageCoverageExists returns the cached verdict, recomputing it once the
// advisory's own cadence has elapsed or the clock has gone backwards.
// Unobservable territories have no coverage.
func (a *Advisory) HaulageCoverageExists(territory string) bool {
	tick := a.zones.Tick()
	if e, ok := a.entries[territory]; ok && !e.stale(tick, a.every) {
		return e.value
	}

	snap, ok := a.zones.Snapshot(territory)
	if !ok {
		delete(a.entries, territory)
		return false
	}

	value := a.evaluate(snap)
	a.entries[territory] = entry{value: value, tick: tick}
	return value
}

// Forget drops the cached verdict for a territory that is no longer controlled.
func (a *Advisory) Forget(territory string) {
	delete(a.entries, territory)
}

func (a *Advisory) evaluate(snap *model.Snapshot) bool {
	env := newEnv(snap, a.haulerRoles)
	result, err := vm.Run(a.program, env)
	if err != nil {
		slog.Warn("advisory condition error", "territory", snap.Name, "condition", a.src, "error", err)
		return false
	}
	ok, _ := result.(bool)
	slog.Debug("advisory evaluated", "territory", snap.Name, "coverage", ok, "haulers", env.Haulers)
	return ok
}
