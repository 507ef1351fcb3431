package defense

import "github.com/nstehr/vimy/vimy-defense/model"

// selectHealTarget keeps the cached unit until it climbs to HealKeepRatio and
// only picks a new one below HealSelectRatio, so a unit hovering around a
// single boundary cannot flip the target every tick. Full scans are throttled
// to HealScanInterval unless a rejection forced one.
func (a *Allocator) selectHealTarget(st *TerritoryState, snap *model.Snapshot, tick int) *model.Unit {
	if st.healTarget != "" {
		u, ok := snap.Friendly(st.healTarget)
		if ok && float64(u.Hits) < a.tuning.HealKeepRatio*float64(u.HitsMax) {
			return u
		}
		st.healTarget = ""
	}

	if st.healScanned && !st.forceHealScan && !expired(tick, st.lastHealScan, a.tuning.HealScanInterval) {
		return nil
	}
	st.healScanned = true
	st.forceHealScan = false
	st.lastHealScan = tick

	var best *model.Unit
	bestRatio := a.tuning.HealSelectRatio
	for i := range snap.Friendlies {
		u := &snap.Friendlies[i]
		if u.HitsMax <= 0 {
			continue
		}
		if r := u.Ratio(); r < bestRatio {
			best, bestRatio = u, r
		}
	}
	if best != nil {
		st.healTarget = best.ID
	}
	return best
}

func (st *TerritoryState) invalidateHeal() {
	st.healTarget = ""
	st.forceHealScan = true
}
