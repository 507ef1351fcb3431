package defense

import (
	"log/slog"

	"github.com/nstehr/vimy/vimy-defense/model"
)

// repairTiers is the scan order. Earlier tiers always win; ramparts and walls
// share the last tier.
var repairTiers = [][]model.Category{
	{model.Container},
	{model.Road},
	{model.Extension},
	{model.Spawn},
	{model.Storage},
	{model.Link},
	{model.Tower},
	{model.Lab},
	{model.Terminal},
	{model.Rampart, model.Wall},
}

// repairable reports whether more hits can be put into s at this level.
func repairable(s *model.Structure, level int) bool {
	if s.Hits >= s.HitsMax {
		return false
	}
	if s.Category.IsBarrier() && s.Hits >= model.BarrierCeiling(level) {
		return false
	}
	return true
}

// selectRepairTarget validates the cached target and, when it is gone, runs
// a throttled priority scan. The rotation counter is reset whenever a scan
// settles on a target.
func (a *Allocator) selectRepairTarget(st *TerritoryState, snap *model.Snapshot, tick int) *model.Structure {
	if id := st.RepairTargetID; id != "" {
		s, ok := snap.Structure(id)
		switch {
		case !ok:
			slog.Debug("repair target gone", "territory", snap.Name, "target", id)
		case !repairable(s, snap.Level):
		case st.IntegrityRepaired >= a.tuning.RepairRotationCap:
			slog.Debug("repair target rotated out", "territory", snap.Name, "target", id, "repaired", st.IntegrityRepaired)
			st.rotatedOut = id
		default:
			return s
		}
		st.clearRepairTarget()
	}

	if st.repairScanned && !st.forceRepairScan && !expired(tick, st.LastRepairScan, a.tuning.RepairScanInterval) {
		return nil
	}

	if !st.advisoryChecked || expired(tick, st.LastAdvisoryCheck, a.tuning.AdvisoryInterval) {
		st.HaulageCoverage = a.advisory.HaulageCoverageExists(snap.Name)
		st.LastAdvisoryCheck = tick
		st.advisoryChecked = true
	}
	haulers := snap.CountRole(a.tuning.HaulerRoles) > 0

	target := a.scanRepair(snap, st.HaulageCoverage, haulers, st.rotatedOut)

	st.rotatedOut = ""
	st.forceRepairScan = false
	st.repairScanned = true
	st.LastRepairScan = tick
	st.clearRepairTarget()
	if target != nil {
		st.RepairTargetID = target.ID
	}
	return target
}

// scanRepair walks repairTiers in order and returns the most damaged eligible
// structure of the first tier that has one. Stopping at that tier boundary is
// only an optimisation: later tiers can never outrank it.
func (a *Allocator) scanRepair(snap *model.Snapshot, barriersAllowed, haulers bool, exclude string) *model.Structure {
	for _, tier := range repairTiers {
		barrier := tier[0].IsBarrier()
		if barrier && !barriersAllowed {
			continue
		}

		var best *model.Structure
		var bestValue float64
		for _, cat := range tier {
			list := snap.Structures[cat]
			for i := range list {
				s := &list[i]
				if s.ID == exclude || !ownedOrNeutral(snap, s) || !repairable(s, snap.Level) {
					continue
				}
				if cat == model.Container && !haulers && s.Damage() >= a.tuning.ContainerSkipDamage {
					continue
				}
				value := float64(s.Hits)
				if !barrier {
					value /= float64(s.HitsMax)
				}
				if best == nil || value < bestValue {
					best, bestValue = s, value
				}
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func ownedOrNeutral(snap *model.Snapshot, s *model.Structure) bool {
	return s.Owner == "" || s.Owner == snap.Controller
}

func (st *TerritoryState) invalidateRepair() {
	st.clearRepairTarget()
	st.forceRepairScan = true
}
