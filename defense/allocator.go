// Package defense decides, once per tick and per territory, how the
// territory's turrets spend their shared energy: fight, heal, repair or idle.
package defense

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nstehr/vimy/vimy-defense/model"
)

// Zones supplies consistent per-tick territory snapshots.
type Zones interface {
	Tick() int
	Territories() []string
	Snapshot(name string) (*model.Snapshot, bool)
}

type Classifier interface {
	IsHostile(o model.Owned) bool
	HasActiveHealCapability(u model.Unit) bool
}

type Advisory interface {
	HaulageCoverageExists(territory string) bool
}

// Commander delivers turret intents to whatever executes them.
type Commander interface {
	Issue(in Intent) error
}

// Mode is what a territory ended up doing this tick. It is recomputed from
// cache state every tick and never carried over.
type Mode int

const (
	ModeNoTurret Mode = iota
	ModeNoEnergy
	ModeIdle
	ModeCombat
	ModeHeal
	ModeRepair
)

var modeNames = [...]string{"no_turret", "no_energy", "idle", "combat", "heal", "repair"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	for i, name := range modeNames {
		if name == string(b) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", b)
}

// Decision records one territory's outcome for a tick. Mode is the highest
// priority layer that acted; HealTarget and RepairTarget may both be set.
type Decision struct {
	Territory    string `json:"territory"`
	Mode         Mode   `json:"mode"`
	Source       string `json:"source,omitempty"`
	Energy       int    `json:"energy"`
	AttackTarget string `json:"attack_target,omitempty"`
	HealTarget   string `json:"heal_target,omitempty"`
	RepairTarget string `json:"repair_target,omitempty"`
	Intents      int    `json:"intents"`
}

type Report struct {
	Tick      int        `json:"tick"`
	Decisions []Decision `json:"decisions"`
}

// Allocator owns every territory's TerritoryState. It is not safe for
// concurrent use; one allocator serves one game session.
type Allocator struct {
	zones      Zones
	classifier Classifier
	advisory   Advisory
	cmd        Commander
	tuning     Tuning

	states   map[string]*TerritoryState
	lastDiag int
}

func NewAllocator(zones Zones, classifier Classifier, advisory Advisory, cmd Commander, tuning Tuning) *Allocator {
	return &Allocator{
		zones:      zones,
		classifier: classifier,
		advisory:   advisory,
		cmd:        cmd,
		tuning:     tuning,
		states:     make(map[string]*TerritoryState),
		lastDiag:   -tuning.DiagnosticsEvery,
	}
}

// RunAllocation runs one tick for every observable territory. Territories the
// zone source cannot see this tick are skipped without touching their state.
func (a *Allocator) RunAllocation() Report {
	tick := a.zones.Tick()
	rep := Report{Tick: tick}
	for _, name := range a.zones.Territories() {
		snap, ok := a.zones.Snapshot(name)
		if !ok {
			continue
		}
		rep.Decisions = append(rep.Decisions, a.allocate(a.state(name), snap, tick))
	}
	a.logDiagnostics(rep)
	return rep
}

// allocate is the per-territory decision. Each turret gets at most one intent:
// combat uses every energised turret once, heal uses the energy source, and
// repair uses the energy source only if heal did not.
func (a *Allocator) allocate(st *TerritoryState, snap *model.Snapshot, tick int) Decision {
	d := Decision{Territory: snap.Name, Mode: ModeNoTurret}

	turrets := a.resolveTurrets(st, snap, tick)
	if len(turrets) == 0 {
		return d
	}

	source := a.selectEnergySource(st, turrets, tick)
	if source == nil {
		d.Mode = ModeNoEnergy
		return d
	}
	d.Mode = ModeIdle
	d.Source = source.ID
	energy := source.Energy
	d.Energy = energy

	if len(snap.Foreign) > 0 && a.respond(snap, turrets, &d) {
		d.Mode = ModeCombat
		return d
	}

	var healer string
	if energy >= a.tuning.HealMinEnergy {
		if u := a.selectHealTarget(st, snap, tick); u != nil {
			err := a.issue(Intent{Territory: snap.Name, Action: ActionHeal, Turret: source.ID, Target: u.ID})
			switch {
			case errors.Is(err, ErrInvalidTarget):
				st.invalidateHeal()
			case err == nil:
				energy -= a.tuning.ActionEnergy
				healer = source.ID
				d.Mode = ModeHeal
				d.HealTarget = u.ID
				d.Intents++
			}
		}
	}

	if energy >= a.tuning.RepairMinEnergy {
		turret := source
		if healer != "" {
			turret = a.spareTurret(turrets, healer)
		}
		if turret != nil {
			if s := a.selectRepairTarget(st, snap, tick); s != nil {
				err := a.issue(Intent{Territory: snap.Name, Action: ActionRepair, Turret: turret.ID, Target: s.ID})
				switch {
				case errors.Is(err, ErrInvalidTarget):
					st.invalidateRepair()
				case err == nil:
					st.IntegrityRepaired += a.tuning.RepairNominal
					if d.Mode == ModeIdle {
						d.Mode = ModeRepair
					}
					d.RepairTarget = s.ID
					d.Intents++
				}
			}
		}
	}

	d.Energy = energy
	return d
}

// logDiagnostics summarises modes across territories, throttled so a large
// empire does not flood the log.
func (a *Allocator) logDiagnostics(rep Report) {
	if a.tuning.DiagnosticsEvery <= 0 || !expired(rep.Tick, a.lastDiag, a.tuning.DiagnosticsEvery) {
		return
	}
	a.lastDiag = rep.Tick

	modes := make(map[string]int)
	for _, d := range rep.Decisions {
		modes[d.Mode.String()]++
	}
	slog.Info("allocation diagnostics",
		"tick", rep.Tick,
		"territories", len(rep.Decisions),
		"tracked", len(a.states),
		"modes", modes,
	)
}
