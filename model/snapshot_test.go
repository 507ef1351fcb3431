package model

import (
	"encoding/json"
	"testing"
)

func TestBarrierCeilingMonotonic(t *testing.T) {
	prev := BarrierCeiling(0)
	for level := 1; level <= MaxLevel; level++ {
		got := BarrierCeiling(level)
		if got < prev {
			t.Errorf("BarrierCeiling(%d) = %d, below level %d's %d", level, got, level-1, prev)
		}
		prev = got
	}
}

func TestBarrierCeilingTable(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{-3, 0},
		{0, 0},
		{1, 0},
		{2, 10_000},
		{4, 200_000},
		{8, 20_000_000},
		{12, 20_000_000},
	}
	for _, tc := range tests {
		if got := BarrierCeiling(tc.level); got != tc.want {
			t.Errorf("BarrierCeiling(%d) = %d, want %d", tc.level, got, tc.want)
		}
	}
}

func TestCategoryJSON(t *testing.T) {
	var st Structure
	if err := json.Unmarshal([]byte(`{"id":"w1","category":"Wall","hits":5,"hitsMax":10}`), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.Category != Wall {
		t.Errorf("category = %v, want wall", st.Category)
	}
	if !st.Category.IsBarrier() {
		t.Error("wall should be a barrier")
	}

	if err := json.Unmarshal([]byte(`{"id":"x","category":"observatory"}`), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.Category != Other {
		t.Errorf("unknown category = %v, want other", st.Category)
	}

	b, err := json.Marshal(Structure{ID: "t1", Category: Tower})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(b, &raw)
	if raw["category"] != "tower" {
		t.Errorf("marshalled category = %v, want tower", raw["category"])
	}
}

func TestNewSnapshotSplitsUnits(t *testing.T) {
	snap := NewSnapshot(7, Territory{
		Name:       "W1N1",
		Level:      3,
		Controller: "me",
		Structures: []Structure{
			{ID: "t1", Category: Tower, Energy: 400},
			{ID: "t2", Category: Tower, Owner: "them"},
			{ID: "r1", Category: Road, Hits: 10, HitsMax: 50},
		},
		Units: []Unit{
			{ID: "u1", Owner: "me", Role: "hauler"},
			{ID: "u2", Owner: "them"},
			{ID: "u3"},
		},
	})

	if len(snap.Friendlies) != 1 || snap.Friendlies[0].ID != "u1" {
		t.Errorf("friendlies = %+v, want [u1]", snap.Friendlies)
	}
	if len(snap.Foreign) != 2 {
		t.Errorf("foreign = %d, want 2", len(snap.Foreign))
	}
	if got := len(snap.Owned(Tower)); got != 1 {
		t.Errorf("owned towers = %d, want 1", got)
	}
	if _, ok := snap.Structure("r1"); !ok {
		t.Error("road r1 should resolve")
	}
	if _, ok := snap.Structure("gone"); ok {
		t.Error("unknown id should not resolve")
	}
	if u, ok := snap.Friendly("u1"); !ok || u.Role != "hauler" {
		t.Errorf("Friendly(u1) = %+v, %v", u, ok)
	}
	if _, ok := snap.Friendly("u2"); ok {
		t.Error("foreign unit should not resolve as friendly")
	}
	if _, ok := snap.Friendly("u3"); ok {
		t.Error("unowned unit should not resolve as friendly")
	}
	if n := snap.CountRole([]string{"hauler"}); n != 1 {
		t.Errorf("CountRole(hauler) = %d, want 1", n)
	}
}

func TestDamageAndRatio(t *testing.T) {
	if d := (Structure{Hits: 75, HitsMax: 100}).Damage(); d != 0.25 {
		t.Errorf("Damage = %v, want 0.25", d)
	}
	if d := (Structure{}).Damage(); d != 0 {
		t.Errorf("Damage of empty = %v, want 0", d)
	}
	if r := (Unit{Hits: 40, HitsMax: 100}).Ratio(); r != 0.4 {
		t.Errorf("Ratio = %v, want 0.4", r)
	}
}
