package model

// Snapshot is a consistent per-tick view of one territory. Identity lookups are
// indexed once at construction so resolving a cached id is O(1).
type Snapshot struct {
	Name       string
	Tick       int
	Level      int
	Controller string

	Structures map[Category][]Structure
	Friendlies []Unit
	Foreign    []Unit

	structByID map[string]*Structure
	unitByID   map[string]*Unit
}

// NewSnapshot groups a wire territory into categories and splits units into
// the controller's own and everybody else's. Units without an owner count as
// foreign; deciding whether they are hostile is the classifier's job.
func NewSnapshot(tick int, t Territory) *Snapshot {
	s := &Snapshot{
		Name:       t.Name,
		Tick:       tick,
		Level:      t.Level,
		Controller: t.Controller,
		Structures: make(map[Category][]Structure),
		structByID: make(map[string]*Structure, len(t.Structures)),
		unitByID:   make(map[string]*Unit, len(t.Units)),
	}
	for _, st := range t.Structures {
		s.Structures[st.Category] = append(s.Structures[st.Category], st)
	}
	for cat := range s.Structures {
		list := s.Structures[cat]
		for i := range list {
			s.structByID[list[i].ID] = &list[i]
		}
	}
	for _, u := range t.Units {
		if u.Owner != "" && u.Owner == t.Controller {
			s.Friendlies = append(s.Friendlies, u)
		} else {
			s.Foreign = append(s.Foreign, u)
		}
	}
	for i := range s.Friendlies {
		s.unitByID[s.Friendlies[i].ID] = &s.Friendlies[i]
	}
	for i := range s.Foreign {
		s.unitByID[s.Foreign[i].ID] = &s.Foreign[i]
	}
	return s
}

// Structure resolves a structure id to a live reference for this tick.
func (s *Snapshot) Structure(id string) (*Structure, bool) {
	st, ok := s.structByID[id]
	return st, ok
}

// Friendly resolves id only among the controller's units.
func (s *Snapshot) Friendly(id string) (*Unit, bool) {
	u, ok := s.unitByID[id]
	if !ok || u.Owner != s.Controller {
		return nil, false
	}
	return u, true
}

// Owned returns structures of cat that belong to the controller. Structures
// reported without an owner are treated as the controller's.
func (s *Snapshot) Owned(cat Category) []Structure {
	var out []Structure
	for _, st := range s.Structures[cat] {
		if st.Owner == "" || st.Owner == s.Controller {
			out = append(out, st)
		}
	}
	return out
}

// CountRole counts friendly units whose role is any of roles.
func (s *Snapshot) CountRole(roles []string) int {
	n := 0
	for _, u := range s.Friendlies {
		for _, r := range roles {
			if u.Role == r {
				n++
				break
			}
		}
	}
	return n
}
