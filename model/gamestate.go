package model

// GameState is one tick of the mod's view of every territory the player controls.
type GameState struct {
	Tick        int         `json:"tick"`
	Player      string      `json:"player"`
	Territories []Territory `json:"territories"`
}

// Territory is the wire form of a controlled zone. Units carries every unit the
// mod can see inside the zone; NewSnapshot splits them by owner.
type Territory struct {
	Name       string      `json:"name"`
	Level      int         `json:"level"`
	Controller string      `json:"controller"`
	Structures []Structure `json:"structures"`
	Units      []Unit      `json:"units"`
}

type Structure struct {
	ID             string   `json:"id"`
	Category       Category `json:"category"`
	Owner          string   `json:"owner,omitempty"`
	Hits           int      `json:"hits"`
	HitsMax        int      `json:"hitsMax"`
	Energy         int      `json:"energy,omitempty"`
	EnergyCapacity int      `json:"energyCapacity,omitempty"`
}

func (s Structure) OwnerName() string { return s.Owner }

// Damage is the missing fraction of hits, 0 for a structure without a hits pool.
func (s Structure) Damage() float64 {
	if s.HitsMax <= 0 {
		return 0
	}
	return 1 - float64(s.Hits)/float64(s.HitsMax)
}

type Unit struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Owner     string `json:"owner"`
	Hits      int    `json:"hits"`
	HitsMax   int    `json:"hitsMax"`
	HealParts int    `json:"healParts,omitempty"`
}

func (u Unit) OwnerName() string { return u.Owner }

// Ratio is hits/hitsMax, 1 for a unit without a hits pool.
func (u Unit) Ratio() float64 {
	if u.HitsMax <= 0 {
		return 1
	}
	return float64(u.Hits) / float64(u.HitsMax)
}

// Owned is anything that can be attributed to a player.
type Owned interface {
	OwnerName() string
}
