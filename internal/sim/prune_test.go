package sim

import "testing"

func TestLastChild(t *testing.T) {
	w := testWorld()
	c, _ := w.Spawn("C", 0, 0, 0)
	h1, _ := w.Spawn("H", 42, 0, 0)
	h2, _ := w.Spawn("H", 0, 42, 0)
	if err := w.TryBond(h1, c, true); err != nil {
		t.Fatalf("TryBond failed: %v", err)
	}
	if err := w.TryBond(h2, c, true); err != nil {
		t.Fatalf("TryBond failed: %v", err)
	}

	if got := w.LastChild(c); got != h2 {
		t.Errorf("Expected last child %d, got %d", h2, got)
	}
	if got := w.LastChild(h1); got != None {
		t.Errorf("Expected None for a childless atom, got %d", got)
	}
	if got := w.LastChild(99); got != None {
		t.Errorf("Expected None out of range, got %d", got)
	}
}

func TestPrunableLeaf(t *testing.T) {
	// c0 - c1 - c2 - c3 chain with an extra hydrogen on the root.
	w, ids := chainWorld(t, 4)
	h, _ := w.Spawn("H", 0, 42, 0)
	if err := w.TryBond(h, ids[0], true); err != nil {
		t.Fatalf("TryBond failed: %v", err)
	}

	// The chain tip is deeper than the hydrogen, so it is preferred.
	if got := w.PrunableLeaf(ids[0]); got != ids[3] {
		t.Errorf("Expected deepest leaf %d, got %d", ids[3], got)
	}

	w.BreakBond(ids[3])
	if got := w.PrunableLeaf(ids[0]); got != ids[2] {
		t.Errorf("Expected leaf %d after pruning the tip, got %d", ids[2], got)
	}
}

func TestPrunableLeaf_RingHasNone(t *testing.T) {
	w, ids := chainWorld(t, 4)
	if err := w.TryCycleBond(ids[3], ids[0]); err != nil {
		t.Fatalf("TryCycleBond failed: %v", err)
	}

	if got := w.PrunableLeaf(ids[0]); got != None {
		t.Errorf("Expected no prunable leaf in a pure ring, got %d", got)
	}

	if got := w.PrunableLeaf(None); got != None {
		t.Errorf("Expected None out of range, got %d", got)
	}
}

func TestAudit_CleanWorld(t *testing.T) {
	w, ids := chainWorld(t, 4)
	if err := w.TryCycleBond(ids[3], ids[0]); err != nil {
		t.Fatalf("TryCycleBond failed: %v", err)
	}

	report := w.Audit()
	if !report.Clean() {
		t.Errorf("Expected a clean audit on an untampered world, got %+v", report)
	}
}

func TestAudit_DanglingParent(t *testing.T) {
	w := testWorld()
	w.Spawn("C", 0, 0, 0)

	w.mu.Lock()
	w.states[0].Parent = 42
	w.states[0].Clustered = true
	w.mu.Unlock()

	report := w.Audit()
	if report.DanglingParents != 1 {
		t.Errorf("Expected 1 dangling parent repaired, got %d", report.DanglingParents)
	}

	v, _ := w.Entity(0)
	if v.State.Parent != None || v.State.Clustered {
		t.Error("Expected the dangling reference cleared")
	}
}

func TestAudit_ChildCountAndSlotMask(t *testing.T) {
	w := testWorld()
	a, _ := w.Spawn("C", 0, 0, 0)
	b, _ := w.Spawn("C", 42, 0, 0)
	w.TryBond(b, a, false)

	w.mu.Lock()
	w.states[a].ChildCount = 7
	w.states[a].OccupiedSlots = 0b1010
	w.mu.Unlock()

	report := w.Audit()
	if report.ChildCountFixes != 1 || report.SlotMaskFixes != 1 {
		t.Errorf("Expected count and mask repairs, got %+v", report)
	}

	v, _ := w.Entity(a)
	if v.State.ChildCount != 1 || v.State.OccupiedSlots != 1 {
		t.Errorf("Expected re-derived count 1 and mask 1, got %d / %b",
			v.State.ChildCount, v.State.OccupiedSlots)
	}
}

func TestAudit_AsymmetricCycle(t *testing.T) {
	w := testWorld()
	w.Spawn("C", 0, 0, 0)
	w.Spawn("C", 42, 0, 0)

	w.mu.Lock()
	w.states[0].CycleBond = 1
	// states[1].CycleBond deliberately left at None.
	w.mu.Unlock()

	report := w.Audit()
	if report.AsymmetricCycles != 1 {
		t.Errorf("Expected 1 asymmetric cycle cleared, got %d", report.AsymmetricCycles)
	}

	v, _ := w.Entity(0)
	if v.State.CycleBond != None {
		t.Error("Expected the one-sided cycle edge cleared")
	}
}

func TestAudit_OrphanRingTags(t *testing.T) {
	w, ids := chainWorld(t, 4)

	// Ring tags without any live cycle edge are stale.
	w.mu.Lock()
	for _, id := range ids {
		w.states[id].InRing = true
		w.states[id].RingSize = 4
		w.states[id].RingInstance = 0
		w.states[id].RingIndex = 0
	}
	w.mu.Unlock()

	report := w.Audit()
	if report.OrphanRingTags != 4 {
		t.Errorf("Expected 4 orphan ring tags cleared, got %d", report.OrphanRingTags)
	}

	for _, id := range ids {
		v, _ := w.Entity(id)
		if v.State.InRing || v.State.RingInstance != None {
			t.Errorf("Expected entity %d ring tags cleared", id)
		}
	}
}

func TestAudit_MoleculeIDResync(t *testing.T) {
	w, ids := chainWorld(t, 3)

	w.mu.Lock()
	w.states[ids[2]].MoleculeID = 999
	w.mu.Unlock()

	report := w.Audit()
	if report.MoleculeIDFixes != 1 {
		t.Errorf("Expected 1 molecule ID fix, got %d", report.MoleculeIDFixes)
	}
	if w.MoleculeOf(ids[2]) != ids[0] {
		t.Errorf("Expected molecule ID re-synced to the root, got %d", w.MoleculeOf(ids[2]))
	}
}

func TestAuditReport_Clean(t *testing.T) {
	if !(AuditReport{}).Clean() {
		t.Error("Expected empty report clean")
	}
	if (AuditReport{DanglingParents: 1}).Clean() {
		t.Error("Expected non-empty report dirty")
	}
}
