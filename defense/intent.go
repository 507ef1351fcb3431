package defense

import (
	"errors"
	"log/slog"
)

// Sentinel outcomes a Commander may wrap. ErrNotInRange is expected and
// ignored; ErrInvalidTarget drops the cached target and forces a rescan.
var (
	ErrNotInRange    = errors.New("target not in range")
	ErrInvalidTarget = errors.New("invalid target")
)

type Action string

const (
	ActionAttack Action = "attack"
	ActionHeal   Action = "heal"
	ActionRepair Action = "repair"
)

// Intent is one turret order for the current tick.
type Intent struct {
	Territory string `json:"territory"`
	Action    Action `json:"action"`
	Turret    string `json:"turret"`
	Target    string `json:"target"`
}

// issue hands an intent to the commander. Only ErrInvalidTarget is returned
// to the caller; range misses are normal and anything else is logged.
func (a *Allocator) issue(in Intent) error {
	err := a.cmd.Issue(in)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidTarget):
		slog.Info("turret intent rejected", "territory", in.Territory, "action", in.Action, "turret", in.Turret, "target", in.Target, "error", err)
		return err
	case errors.Is(err, ErrNotInRange):
		slog.Debug("turret target out of range", "territory", in.Territory, "action", in.Action, "target", in.Target)
		return nil
	default:
		slog.Error("turret intent failed", "territory", in.Territory, "action", in.Action, "turret", in.Turret, "error", err)
		return err
	}
}

// Reject applies an asynchronous rejection reported by the game after the
// tick's intents were sent. Only cached heal and repair targets are affected;
// combat targets are never cached.
func (a *Allocator) Reject(territory string, action Action, target string) {
	st, ok := a.states[territory]
	if !ok {
		return
	}
	switch action {
	case ActionHeal:
		if st.healTarget == target {
			st.invalidateHeal()
		}
	case ActionRepair:
		if st.RepairTargetID == target {
			st.invalidateRepair()
		}
	default:
		return
	}
	slog.Info("cached target invalidated", "territory", territory, "action", action, "target", target)
}
