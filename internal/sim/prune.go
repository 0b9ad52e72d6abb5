package sim

// Topology auditing. The bonding stages maintain the forest invariants
// incrementally; Audit re-derives them from scratch and repairs any
// drift. It exists for recovery after loading a snapshot from disk and
// as a cheap integrity check in tests. Every repair is counted so the
// caller can tell a clean world from a corrupted one.

// LastChild returns the child of id with the highest entity index, or None
// when id has no children. External layers use it to walk a molecule back
// in reverse build order.
func (w *World) LastChild(id int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if id < 0 || id >= len(w.states) {
		return None
	}
	last := None
	for i := range w.states {
		if w.states[i].Parent == id && i > last {
			last = i
		}
	}
	return last
}

// PrunableLeaf returns an atom in id's molecule that can be detached
// without disturbing the rest of the structure: no children, no cycle
// bond, not ring-tagged, and bonded to a parent. Returns None when the
// molecule has no such atom. Deeper leaves are preferred so repeated
// prune-and-break passes unwind a branch from its tip.
func (w *World) PrunableLeaf(id int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if id < 0 || id >= len(w.states) {
		return None
	}

	best := None
	bestDepth := -1
	for _, m := range connectedMembers(w.states, id) {
		st := &w.states[m]
		if st.Parent == None || st.ChildCount > 0 || st.CycleBond != None || st.InRing {
			continue
		}
		path, ok := pathToRoot(w.states, m, w.params.MaxTraversalDepth)
		if !ok {
			continue
		}
		if depth := len(path); depth > bestDepth {
			best = m
			bestDepth = depth
		}
	}
	return best
}

// AuditReport summarizes the repairs one audit pass performed.
type AuditReport struct {
	DanglingParents  int `json:"dangling_parents"`
	ChildCountFixes  int `json:"child_count_fixes"`
	SlotMaskFixes    int `json:"slot_mask_fixes"`
	AsymmetricCycles int `json:"asymmetric_cycles"`
	OrphanRingTags   int `json:"orphan_ring_tags"`
	MoleculeIDFixes  int `json:"molecule_id_fixes"`
}

// Clean reports whether the audit found nothing to repair.
func (r AuditReport) Clean() bool {
	return r == AuditReport{}
}

// Audit verifies and repairs the bonding topology.
func (w *World) Audit() AuditReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.audit()
}

func (w *World) audit() AuditReport {
	var report AuditReport
	n := len(w.states)

	// Parent references must point at live entities and never at self.
	for i := range w.states {
		st := &w.states[i]
		if p := st.Parent; p != None && (p < 0 || p >= n || p == i) {
			st.Parent = None
			st.ParentSlot = None
			st.Clustered = false
			report.DanglingParents++
		}
	}

	// Re-derive child counts and slot masks from the parent edges.
	counts := make([]int, n)
	masks := make([]uint32, n)
	for i := range w.states {
		if p := w.states[i].Parent; p != None {
			counts[p]++
			if s := w.states[i].ParentSlot; s != None && s < 32 {
				masks[p] |= 1 << uint(s)
			}
		}
	}
	for i := range w.states {
		if w.states[i].ChildCount != counts[i] {
			w.states[i].ChildCount = counts[i]
			report.ChildCountFixes++
		}
		if w.states[i].OccupiedSlots != masks[i] {
			w.states[i].OccupiedSlots = masks[i]
			report.SlotMaskFixes++
		}
	}

	// Cycle edges must be symmetric.
	for i := range w.states {
		cb := w.states[i].CycleBond
		if cb == None {
			continue
		}
		if cb < 0 || cb >= n || w.states[cb].CycleBond != i {
			w.states[i].CycleBond = None
			report.AsymmetricCycles++
		}
	}

	// A ring instance with no surviving cycle edge is stale.
	liveRings := make(map[int]bool)
	for i := range w.states {
		if cb := w.states[i].CycleBond; cb != None {
			if inst := w.states[i].RingInstance; inst != None {
				liveRings[inst] = true
			}
		}
	}
	for i := range w.states {
		st := &w.states[i]
		if st.InRing && !liveRings[st.RingInstance] {
			st.InRing = false
			st.RingSize = 0
			st.RingIndex = None
			st.RingInstance = None
			st.DockingProgress = 0
			report.OrphanRingTags++
		}
	}

	// Memoized molecule ids must match live connectivity: every member
	// of a connected component carries that component's root id.
	seen := make([]bool, n)
	for i := range w.states {
		if seen[i] {
			continue
		}
		members := connectedMembers(w.states, i)
		root := findRoot(w.states, i, w.params.MaxTraversalDepth)
		for _, m := range members {
			seen[m] = true
			if w.states[m].MoleculeID != root {
				w.states[m].MoleculeID = root
				report.MoleculeIDFixes++
			}
		}
	}

	if !report.Clean() {
		w.logger.Warnf("topology audit repaired inconsistencies: %+v", report)
	}
	return report
}
