package sim

import (
	"math"
	"sort"
)

// tryCycleBond closes a cycle between two entities of the same molecule.
// The ring is the path i -> LCA plus the reversed path LCA -> j; its size
// is the number of distinct members. Rings smaller than MinRingSize are
// rejected. On success both endpoints get a symmetric cycle edge, every
// member is tagged with the ring geometry, and a matching structure
// definition (if any) drives the target layout. Callers must hold the
// world lock.
func (w *World) tryCycleBond(i, j int) error {
	if i < 0 || i >= len(w.states) || j < 0 || j >= len(w.states) || i == j {
		return ErrInternal
	}
	if w.states[i].CycleBond != None || w.states[j].CycleBond != None {
		return ErrAlreadyBonded
	}
	if w.states[i].Parent == j || w.states[j].Parent == i {
		return ErrAlreadyBonded
	}
	// The cycle edge counts toward valence on both endpoints.
	if !w.canAcceptBond(i) || !w.canAcceptBond(j) {
		return ErrValencyFull
	}

	pathI, okI := pathToRoot(w.states, i, w.params.MaxTraversalDepth)
	pathJ, okJ := pathToRoot(w.states, j, w.params.MaxTraversalDepth)
	if !okI || !okJ {
		w.logger.Debugf("cycle bond aborted: traversal depth cap hit (%d, %d)", i, j)
		return ErrInternal
	}
	if pathI[len(pathI)-1] != pathJ[len(pathJ)-1] {
		return ErrInternal
	}

	lca, distI, distJ, found := lowestCommonAncestor(pathI, pathJ)
	if !found {
		return ErrInternal
	}

	ringSize := distI + distJ + 1
	if ringSize < w.params.MinRingSize {
		return ErrRingTooSmall
	}

	// Ordered members: i up to (excluding) the LCA, the LCA itself,
	// then back down to j.
	members := make([]int, 0, ringSize)
	members = append(members, pathI[:distI]...)
	members = append(members, lca)
	for k := distJ - 1; k >= 0; k-- {
		members = append(members, pathJ[k])
	}

	fused := false
	for _, m := range members {
		if w.states[m].InRing {
			fused = true
			break
		}
	}

	w.states[i].CycleBond = j
	w.states[j].CycleBond = i

	instance := w.nextRingInstance
	w.nextRingInstance++

	w.assignRingGeometry(members, instance, fused)

	root := pathI[len(pathI)-1]
	propagateMoleculeID(w.states, root, root)

	w.emit(EventRingFormed, i, j, instance, ringSize)
	return nil
}

// assignRingGeometry tags every ring member and lays out the target
// polygon. Ring indices follow the angular order of the members around
// their centroid, so each atom is pulled toward the nearest polygon
// vertex instead of across the ring. Members already belonging to a ring
// keep their original tags, and a fused ring is never laid out or
// snapped: its shared edge would fight both target polygons.
func (w *World) assignRingGeometry(members []int, instance int, fused bool) {
	ringSize := len(members)

	if fused {
		for _, m := range members {
			st := &w.states[m]
			if st.InRing {
				continue
			}
			st.InRing = true
			st.RingSize = ringSize
			st.RingInstance = instance
			st.RingIndex = None
		}
		return
	}

	var cx, cy float64
	for _, m := range members {
		cx += w.transforms[m].X
		cy += w.transforms[m].Y
	}
	cx /= float64(ringSize)
	cy /= float64(ringSize)

	ordered := make([]int, len(members))
	copy(ordered, members)
	sort.Slice(ordered, func(a, b int) bool {
		ta := math.Atan2(w.transforms[ordered[a]].Y-cy, w.transforms[ordered[a]].X-cx)
		tb := math.Atan2(w.transforms[ordered[b]].Y-cy, w.transforms[ordered[b]].X-cx)
		return ta < tb
	})

	// Anchor the polygon on the current bearing of the first member so
	// the snap rotates the ring as little as possible.
	baseAngle := math.Atan2(w.transforms[ordered[0]].Y-cy, w.transforms[ordered[0]].X-cx)

	structure, haveStructure := w.catalog.FindStructure(ringSize, w.atoms[ordered[0]].Element)
	var offsets []Vec2
	if haveStructure {
		offsets = structure.IdealOffsets(w.params.BondIdealDist, baseAngle)
	} else {
		radius := w.params.BondIdealDist / (2 * math.Sin(math.Pi/float64(ringSize)))
		step := 2 * math.Pi / float64(ringSize)
		offsets = make([]Vec2, ringSize)
		for k := range offsets {
			angle := baseAngle + float64(k)*step
			offsets[k] = Vec2{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
		}
	}

	instant := haveStructure && structure.InstantFormation

	for idx, m := range ordered {
		st := &w.states[m]
		st.InRing = true
		st.RingSize = ringSize
		st.RingInstance = instance
		st.RingIndex = idx
		st.TargetX = cx + offsets[idx].X
		st.TargetY = cy + offsets[idx].Y

		if instant {
			tr := &w.transforms[m]
			tr.X = st.TargetX
			tr.Y = st.TargetY
			tr.VX, tr.VY = 0, 0
			st.DockingProgress = 1
		} else {
			st.DockingProgress = 0
		}
	}
}

// invalidateRing atomically clears every trace of one ring instance:
// member tags, target positions, docking progress, and the cycle edges
// closing it. Partial ring state never survives a single broken edge.
func (w *World) invalidateRing(instance int) {
	if instance == None {
		return
	}

	cleared := 0
	sample := None
	for id := range w.states {
		st := &w.states[id]
		if st.RingInstance != instance {
			continue
		}
		// The other side may carry a different instance when the ring was
		// fused onto an older one; the closing edge still dies with this
		// ring.
		if cb := st.CycleBond; cb != None {
			w.states[cb].CycleBond = None
			st.CycleBond = None
		}
		st.InRing = false
		st.RingSize = 0
		st.RingIndex = None
		st.RingInstance = None
		st.TargetX, st.TargetY = 0, 0
		st.DockingProgress = 0
		if sample == None {
			sample = id
		}
		cleared++
	}

	if cleared > 0 {
		w.emit(EventRingInvalidated, sample, None, instance, cleared)
	}
}
