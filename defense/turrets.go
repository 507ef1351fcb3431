package defense

import "github.com/nstehr/vimy/vimy-defense/model"

// resolveTurrets returns live references to the territory's turrets. The id
// list is re-enumerated only when TurretPoolTTL has elapsed; in between,
// stored ids are resolved against the snapshot and vanished ones are skipped.
func (a *Allocator) resolveTurrets(st *TerritoryState, snap *model.Snapshot, tick int) []*model.Structure {
	if !st.turretCached || expired(tick, st.turretRefresh, a.tuning.TurretPoolTTL) {
		st.turretIDs = st.turretIDs[:0]
		for _, t := range snap.Owned(model.Tower) {
			st.turretIDs = append(st.turretIDs, t.ID)
		}
		st.turretRefresh = tick
		st.turretCached = true
		st.turretScans++
	}

	out := make([]*model.Structure, 0, len(st.turretIDs))
	for _, id := range st.turretIDs {
		if t, ok := snap.Structure(id); ok && t.Category == model.Tower {
			out = append(out, t)
		}
	}
	return out
}

// selectEnergySource picks a turret with enough energy to act this tick. The
// previous pick is kept while it is fresh and still clears the threshold, so
// the source does not flip between turrets with similar energy.
func (a *Allocator) selectEnergySource(st *TerritoryState, turrets []*model.Structure, tick int) *model.Structure {
	threshold := a.tuning.PoolMinEnergy
	if len(turrets) == 1 {
		threshold = a.tuning.SingleTurretMinEnergy
	}

	if st.sourceID != "" && !expired(tick, st.sourceRefresh, a.tuning.EnergySourceTTL) {
		for _, t := range turrets {
			if t.ID == st.sourceID && t.Energy >= threshold {
				return t
			}
		}
	}

	var best *model.Structure
	for _, t := range turrets {
		if t.Energy < threshold {
			continue
		}
		if best == nil || t.Energy > best.Energy {
			best = t
		}
	}

	st.sourceID = ""
	if best != nil {
		st.sourceID = best.ID
	}
	st.sourceRefresh = tick
	return best
}

// spareTurret returns the first turret other than used that can still afford
// a repair this tick.
func (a *Allocator) spareTurret(turrets []*model.Structure, used string) *model.Structure {
	for _, t := range turrets {
		if t.ID != used && t.Energy >= a.tuning.RepairMinEnergy {
			return t
		}
	}
	return nil
}
