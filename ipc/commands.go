package ipc

// Turret command types. The game resolves Turret and Target by id within the
// named territory.
const (
	TypeTurretAttack = "turret_attack"
	TypeTurretHeal   = "turret_heal"
	TypeTurretRepair = "turret_repair"
)

type TurretCommand struct {
	Territory string `json:"territory"`
	TurretID  string `json:"turret_id"`
	TargetID  string `json:"target_id"`
}
