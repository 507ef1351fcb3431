package defense

import (
	"testing"

	"github.com/nstehr/vimy/vimy-defense/classify"
	"github.com/nstehr/vimy/vimy-defense/model"
	"github.com/nstehr/vimy/vimy-defense/zone"
)

type fakeAdvisory struct {
	coverage bool
	calls    int
}

func (f *fakeAdvisory) HaulageCoverageExists(string) bool {
	f.calls++
	return f.coverage
}

// recorder collects intents and fails those whose target is listed in fail.
type recorder struct {
	intents []Intent
	fail    map[string]error
}

func (r *recorder) Issue(in Intent) error {
	r.intents = append(r.intents, in)
	return r.fail[in.Target]
}

func (r *recorder) byAction(a Action) []Intent {
	var out []Intent
	for _, in := range r.intents {
		if in.Action == a {
			out = append(out, in)
		}
	}
	return out
}

func (r *recorder) reset() { r.intents = nil }

type harness struct {
	zones *zone.Cache
	adv   *fakeAdvisory
	cmd   *recorder
	alloc *Allocator
}

func newHarness(t *testing.T, tuning Tuning) *harness {
	t.Helper()
	h := &harness{
		zones: zone.NewCache(),
		adv:   &fakeAdvisory{},
		cmd:   &recorder{fail: make(map[string]error)},
	}
	h.alloc = NewAllocator(h.zones, classify.New("me", []string{"ally"}), h.adv, h.cmd, tuning)
	return h
}

func (h *harness) run(tick int, territories ...model.Territory) Report {
	h.zones.Update(tick, territories)
	return h.alloc.RunAllocation()
}

func decisionFor(t *testing.T, rep Report, name string) Decision {
	t.Helper()
	for _, d := range rep.Decisions {
		if d.Territory == name {
			return d
		}
	}
	t.Fatalf("no decision for %s in %+v", name, rep)
	return Decision{}
}

func territory(name string, level int) model.Territory {
	return model.Territory{Name: name, Level: level, Controller: "me"}
}

func tower(id string, energy int) model.Structure {
	return model.Structure{ID: id, Category: model.Tower, Owner: "me", Hits: 3000, HitsMax: 3000, Energy: energy, EnergyCapacity: 1000}
}

func structure(id string, cat model.Category, hits, hitsMax int) model.Structure {
	return model.Structure{ID: id, Category: cat, Hits: hits, HitsMax: hitsMax}
}

func friend(id, role string, hits, hitsMax int) model.Unit {
	return model.Unit{ID: id, Role: role, Owner: "me", Hits: hits, HitsMax: hitsMax}
}

func hostile(id string, healParts int) model.Unit {
	return model.Unit{ID: id, Role: "raider", Owner: "invader", Hits: 500, HitsMax: 500, HealParts: healParts}
}

func with(t model.Territory, structures []model.Structure, units ...model.Unit) model.Territory {
	t.Structures = append(t.Structures, structures...)
	t.Units = append(t.Units, units...)
	return t
}
