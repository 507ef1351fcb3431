package defense

// Tuning holds every interval and threshold the allocator uses. Intervals are
// in ticks; a cache is trusted while tick-lastRefresh < interval.
type Tuning struct {
	TurretPoolTTL   int
	EnergySourceTTL int

	// Minimum energy an energy source must hold: SingleTurretMinEnergy when
	// the pool has exactly one turret, PoolMinEnergy otherwise.
	SingleTurretMinEnergy int
	PoolMinEnergy         int

	// ActionEnergy is what one turret action costs. It is deducted from the
	// tick's running estimate after a heal and is the floor for a turret to
	// join a combat volley.
	ActionEnergy int

	HealMinEnergy    int
	HealSelectRatio  float64
	HealKeepRatio    float64
	HealScanInterval int

	RepairMinEnergy     int
	RepairScanInterval  int
	AdvisoryInterval    int
	RepairRotationCap   int
	RepairNominal       int
	ContainerSkipDamage float64

	HaulerRoles []string

	DiagnosticsEvery int
}

func DefaultTuning() Tuning {
	return Tuning{
		TurretPoolTTL:         100,
		EnergySourceTTL:       3,
		SingleTurretMinEnergy: 100,
		PoolMinEnergy:         300,
		ActionEnergy:          10,
		HealMinEnergy:         100,
		HealSelectRatio:       0.9,
		HealKeepRatio:         0.95,
		HealScanInterval:      5,
		RepairMinEnergy:       100,
		RepairScanInterval:    20,
		AdvisoryInterval:      50,
		RepairRotationCap:     1_000_000,
		RepairNominal:         800,
		ContainerSkipDamage:   0.25,
		HaulerRoles:           []string{"hauler"},
		DiagnosticsEvery:      100,
	}
}

// expired reports whether an entry refreshed at last is no longer trusted at
// tick. A tick earlier than last means the clock restarted, which also expires.
func expired(tick, last, ttl int) bool {
	return tick < last || tick-last >= ttl
}
