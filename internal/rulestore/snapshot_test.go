package rulestore

import (
	"testing"

	"github.com/sentineldev/modgate/internal/engine"
)

func TestSnapshot_ActiveFiltersByRegion(t *testing.T) {
	rules := []engine.Rule{
		{ID: "a", Region: engine.RegionGlobal, IsActive: true, Priority: 1},
		{ID: "b", Region: engine.RegionUS, IsActive: true, Priority: 1},
		{ID: "c", Region: engine.RegionEU, IsActive: true, Priority: 1},
		{ID: "d", Region: engine.RegionUS, IsActive: false, Priority: 1},
	}
	snap := newSnapshot(rules)

	us := snap.Active(engine.RegionUS)
	if len(us) != 2 {
		t.Fatalf("Active(US) = %d rules, want 2 (global a + us b)", len(us))
	}

	eu := snap.Active(engine.RegionEU)
	if len(eu) != 2 {
		t.Fatalf("Active(EU) = %d rules, want 2 (global a + eu c)", len(eu))
	}
}

func TestSnapshot_OrderingPriorityDescThenIDAsc(t *testing.T) {
	rules := []engine.Rule{
		{ID: "z", Region: engine.RegionGlobal, IsActive: true, Priority: 10},
		{ID: "a", Region: engine.RegionGlobal, IsActive: true, Priority: 50},
		{ID: "m", Region: engine.RegionGlobal, IsActive: true, Priority: 50},
	}
	snap := newSnapshot(rules)
	active := snap.Active(engine.RegionGlobal)

	if len(active) != 3 {
		t.Fatalf("expected 3 active rules, got %d", len(active))
	}
	if active[0].ID != "a" || active[1].ID != "m" || active[2].ID != "z" {
		t.Errorf("ordering = %v %v %v, want a m z", active[0].ID, active[1].ID, active[2].ID)
	}
}

func TestSnapshot_NilSnapshotIsSafe(t *testing.T) {
	var s *Snapshot
	if got := s.Active(engine.RegionGlobal); got != nil {
		t.Errorf("expected nil from a nil snapshot, got %v", got)
	}
}
