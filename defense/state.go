package defense

// TerritoryState is everything the allocator remembers about one territory
// between ticks. Only the Record part is persisted; the rest rebuilds itself
// from a cold start within a few ticks.
type TerritoryState struct {
	Record

	turretIDs     []string
	turretRefresh int
	turretCached  bool
	turretScans   int

	sourceID      string
	sourceRefresh int

	healTarget    string
	lastHealScan  int
	healScanned   bool
	forceHealScan bool

	repairScanned   bool
	advisoryChecked bool
	forceRepairScan bool
	rotatedOut      string
}

// Record is the persisted allocation state of one territory. The zero Record
// is a valid cold start.
type Record struct {
	RepairTargetID    string `json:"repair_target_id,omitempty"`
	IntegrityRepaired int    `json:"integrity_repaired,omitempty"`
	LastRepairScan    int    `json:"last_repair_scan,omitempty"`
	LastAdvisoryCheck int    `json:"last_advisory_check,omitempty"`
	HaulageCoverage   bool   `json:"haulage_coverage,omitempty"`
}

// stateFromRecord restores a territory. A zero scan tick reads as "never scanned".
func stateFromRecord(r Record) *TerritoryState {
	return &TerritoryState{
		Record:          r,
		repairScanned:   r.LastRepairScan > 0,
		advisoryChecked: r.LastAdvisoryCheck > 0,
	}
}

func (st *TerritoryState) clearRepairTarget() {
	st.RepairTargetID = ""
	st.IntegrityRepaired = 0
}

func (a *Allocator) state(name string) *TerritoryState {
	st, ok := a.states[name]
	if !ok {
		st = &TerritoryState{}
		a.states[name] = st
	}
	return st
}

// Export returns the persisted records of every known territory.
func (a *Allocator) Export() map[string]Record {
	out := make(map[string]Record, len(a.states))
	for name, st := range a.states {
		out[name] = st.Record
	}
	return out
}

// Import replaces the allocator's memory with previously exported records.
// In-memory caches start cold.
func (a *Allocator) Import(records map[string]Record) {
	a.states = make(map[string]*TerritoryState, len(records))
	for name, r := range records {
		a.states[name] = stateFromRecord(r)
	}
}

// Forget drops all state for a territory that is no longer controlled.
func (a *Allocator) Forget(name string) {
	delete(a.states, name)
}
