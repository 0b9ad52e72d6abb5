package sim

import "errors"

// Bonding failures are categorical and expected: they mean "no bond forms
// this tick, try again later". Only ErrInternal points at malformed input
// or a corrupted topology.
var (
	ErrValencyFull       = errors.New("valency full")
	ErrDistanceTooFar    = errors.New("distance too far")
	ErrAngleIncompatible = errors.New("angle incompatible")
	ErrAlreadyClustered  = errors.New("already clustered")
	ErrAlreadyBonded     = errors.New("already bonded")
	ErrRingTooSmall      = errors.New("ring too small")
	ErrInternal          = errors.New("internal bonding error")
)

// canAcceptBond reports whether the entity has spare valence.
func (w *World) canAcceptBond(id int) bool {
	if id < 0 || id >= len(w.states) {
		return false
	}
	elem, ok := w.catalog.Element(w.atoms[id].Element)
	if !ok {
		return false
	}
	return w.states[id].BondCount() < elem.MaxBonds
}

// firstFreeSlot returns the lowest unoccupied valence slot of host, or
// None when the host is at full valence.
func (w *World) firstFreeSlot(host int) int {
	elem, ok := w.catalog.Element(w.atoms[host].Element)
	if !ok || w.states[host].BondCount() >= elem.MaxBonds {
		return None
	}
	for i := range elem.Slots {
		if w.states[host].OccupiedSlots&(1<<uint(i)) == 0 {
			return i
		}
	}
	return None
}

// bestAvailableSlot searches host's free valence slots for the one whose
// direction best matches the relative position of the incoming atom.
// hadFree reports whether any free slot existed at all, so the caller can
// distinguish "valency full" from "angle incompatible".
func (w *World) bestAvailableSlot(host int, rel Vec3, ignoreAngle bool, angleMult float64) (slot int, hadFree bool) {
	slot = None
	elem, ok := w.catalog.Element(w.atoms[host].Element)
	if !ok || w.states[host].BondCount() >= elem.MaxBonds {
		return None, false
	}

	norm := rel.Normalize()
	minDist := 1e30
	for i, dir := range elem.Slots {
		if w.states[host].OccupiedSlots&(1<<uint(i)) != 0 {
			continue
		}
		hadFree = true
		if !ignoreAngle && norm.Dot(dir) <= w.params.BondAngleThreshold*angleMult {
			continue
		}
		if d := norm.DistanceTo(dir); d < minDist {
			minDist = d
			slot = i
		}
	}
	return slot, hadFree
}

// tryBond attaches source to the best free valence slot of any entity in
// target's molecule. The host is chosen at minimum distance to source
// among all hosts offering a valid slot; slot choice per host is by
// alignment with the relative position, gated by the angle threshold
// unless forced. Callers must hold the world lock.
func (w *World) tryBond(source, target int, forced bool) error {
	if source < 0 || source >= len(w.states) || target < 0 || target >= len(w.states) || source == target {
		return ErrInternal
	}
	if w.states[source].Locked() || w.states[source].Parent != None {
		return ErrAlreadyClustered
	}

	molRoot := findRoot(w.states, target, w.params.MaxTraversalDepth)
	if molRoot == None {
		return ErrInternal
	}
	// Bonding into the own molecule would close a cycle through parent
	// edges and break the forest invariant; cycles go through ring
	// chemistry instead.
	if findRoot(w.states, source, w.params.MaxTraversalDepth) == molRoot {
		return ErrAlreadyBonded
	}

	angleMult := w.zones.AngleMultiplier(w.transforms[source].X, w.transforms[source].Y)

	bestHost := None
	bestSlot := None
	minDist := 1e30
	anyFree := false

	for host := range w.states {
		if host == source || findRoot(w.states, host, w.params.MaxTraversalDepth) != molRoot {
			continue
		}
		rel := w.transforms[source].Pos().Sub(w.transforms[host].Pos())
		slot, hadFree := w.bestAvailableSlot(host, rel, forced, angleMult)
		if slot == None && forced {
			slot = w.firstFreeSlot(host)
		}
		anyFree = anyFree || hadFree

		if slot == None {
			continue
		}
		if dist := rel.Length(); dist < minDist {
			minDist = dist
			bestHost = host
			bestSlot = slot
		}
	}

	if bestHost == None {
		if !anyFree {
			return ErrValencyFull
		}
		return ErrAngleIncompatible
	}

	src := &w.states[source]
	src.Clustered = true
	src.Parent = bestHost
	src.ParentSlot = bestSlot
	src.MoleculeID = molRoot
	src.DockingProgress = 0

	w.states[bestHost].ChildCount++
	w.states[bestHost].OccupiedSlots |= 1 << uint(bestSlot)

	propagateMoleculeID(w.states, source, molRoot)
	w.emit(EventBondFormed, source, bestHost, None, 0)
	return nil
}

// breakBond detaches the entity from its parent. The detached subtree
// becomes its own molecule with a fresh id. A no-op on entities that are
// not clustered, so breaking an already-isolated atom never mutates
// state. If the broken edge lies on a ring path, the whole ring is
// invalidated first.
func (w *World) breakBond(id int) {
	if id < 0 || id >= len(w.states) || !w.states[id].Clustered {
		return
	}

	if p := w.states[id].Parent; p != None &&
		w.states[id].InRing && w.states[p].InRing &&
		w.states[id].RingInstance != None &&
		w.states[id].RingInstance == w.states[p].RingInstance {
		w.invalidateRing(w.states[id].RingInstance)
	}

	st := &w.states[id]
	parent := st.Parent
	if parent != None {
		w.states[parent].ChildCount--
		if st.ParentSlot != None {
			w.states[parent].OccupiedSlots &^= 1 << uint(st.ParentSlot)
		}
	}

	st.Clustered = false
	st.Parent = None
	st.ParentSlot = None
	st.MoleculeID = id
	st.DockingProgress = 0

	propagateMoleculeID(w.states, id, id)
	if parent != None {
		w.emit(EventBondBroken, id, parent, None, 0)
	}
}

// breakAllBonds fully isolates an entity: it invalidates its ring (if
// any), detaches it from its parent, and detaches every child, each of
// which becomes the root of its own molecule. Used when an external
// subsystem seizes exclusive control of an atom.
func (w *World) breakAllBonds(id int) {
	if id < 0 || id >= len(w.states) {
		return
	}

	if w.states[id].CycleBond != None || w.states[id].InRing {
		w.invalidateRing(w.states[id].RingInstance)
	}
	// A cycle edge without ring tags should not exist, but a stray one
	// must still be cleared symmetrically.
	if cb := w.states[id].CycleBond; cb != None {
		w.states[cb].CycleBond = None
		w.states[id].CycleBond = None
	}

	if w.states[id].Clustered {
		w.breakBond(id)
	}
	for _, child := range children(w.states, id) {
		w.breakBond(child)
	}

	shielded := w.states[id].Shielded
	release := w.states[id].ReleaseTimer
	w.states[id] = isolatedState(id)
	w.states[id].Shielded = shielded
	w.states[id].ReleaseTimer = release
}
