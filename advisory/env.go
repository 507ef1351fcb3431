package advisory

import (
	"github.com/nstehr/vimy/vimy-defense/model"
)

// Env is what an advisory condition can see. Fields are precomputed; methods
// are callable from the expression, e.g. `Haulers >= 2 || Damaged("container") == 0`.
type Env struct {
	Territory    string
	Level        int
	Haulers      int
	Friendlies   int
	Containers   int
	HasStorage   bool
	StoredEnergy int

	snap *model.Snapshot
}

func newEnv(snap *model.Snapshot, haulerRoles []string) Env {
	env := Env{
		Territory:  snap.Name,
		Level:      snap.Level,
		Haulers:    snap.CountRole(haulerRoles),
		Friendlies: len(snap.Friendlies),
		Containers: len(snap.Structures[model.Container]),
		snap:       snap,
	}
	for _, st := range snap.Owned(model.Storage) {
		env.HasStorage = true
		env.StoredEnergy += st.Energy
	}
	return env
}

// Damaged counts structures of the named category below full hits.
func (e Env) Damaged(category string) int {
	if e.snap == nil {
		return 0
	}
	n := 0
	for _, st := range e.snap.Structures[model.ParseCategory(category)] {
		if st.Hits < st.HitsMax {
			n++
		}
	}
	return n
}

// RoleCount counts friendly units with the given role.
func (e Env) RoleCount(role string) int {
	if e.snap == nil {
		return 0
	}
	return e.snap.CountRole([]string{role})
}
