package defense

import (
	"log/slog"

	"github.com/nstehr/vimy/vimy-defense/model"
)

// pickHostile returns the first hostile healer, or the first hostile when no
// healer is present.
func (a *Allocator) pickHostile(snap *model.Snapshot) *model.Unit {
	var first *model.Unit
	for i := range snap.Foreign {
		u := &snap.Foreign[i]
		if !a.classifier.IsHostile(*u) {
			continue
		}
		if a.classifier.HasActiveHealCapability(*u) {
			return u
		}
		if first == nil {
			first = u
		}
	}
	return first
}

// respond orders every turret that can afford a shot to attack the chosen
// hostile. It never caches: the threat picture is rebuilt every tick.
func (a *Allocator) respond(snap *model.Snapshot, turrets []*model.Structure, d *Decision) bool {
	target := a.pickHostile(snap)
	if target == nil {
		return false
	}

	d.AttackTarget = target.ID
	for _, t := range turrets {
		if t.Energy < a.tuning.ActionEnergy {
			continue
		}
		err := a.issue(Intent{Territory: snap.Name, Action: ActionAttack, Turret: t.ID, Target: target.ID})
		if err == nil {
			d.Intents++
		}
	}
	slog.Debug("turrets engaging", "territory", snap.Name, "target", target.ID, "owner", target.Owner, "turrets", d.Intents)
	return true
}
