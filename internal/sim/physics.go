package sim

import "math"

// Physics stages. Each stage accumulates directly into velocities; the
// integration stage at the end of the tick turns velocity into position.
// Stage order matters: springs rely on charges having already pushed
// loose atoms apart, and ring dynamics must see the spring-corrected
// velocities to split drift from internal motion.

func clampVelocity(tr *Transform, max float64) {
	speed := math.Sqrt(tr.VX*tr.VX + tr.VY*tr.VY + tr.VZ*tr.VZ)
	if speed > max && speed > 0 {
		s := max / speed
		tr.VX *= s
		tr.VY *= s
		tr.VZ *= s
	}
}

// applyElectrostatics applies the softened Coulomb interaction between
// charged atoms. Pairs beyond EMReach or below the charge threshold are
// skipped; the softening distance keeps close-range forces finite.
func (w *World) applyElectrostatics() {
	dt := w.params.FixedDeltaTime
	soft2 := w.params.MinCoulombDist * w.params.MinCoulombDist

	for i := range w.atoms {
		qi := w.atoms[i].PartialCharge
		if math.Abs(qi) < w.params.ChargeThreshold {
			continue
		}
		pos := w.transforms[i].Pos()

		for _, j := range w.grid.Nearby(pos.X, pos.Y, w.params.EMReach) {
			if j <= i {
				continue
			}
			qj := w.atoms[j].PartialCharge
			if math.Abs(qj) < w.params.ChargeThreshold {
				continue
			}
			delta := w.transforms[j].Pos().Sub(pos)
			dist := delta.Length()
			if dist > w.params.EMReach || dist == 0 {
				continue
			}

			// Positive for like charges: pushes j away from i.
			force := w.params.CoulombConstant * qi * qj / (dist*dist + soft2)
			dir := delta.Scale(1 / dist)

			mi := w.catalog.Mass(w.atoms[i].Element)
			mj := w.catalog.Mass(w.atoms[j].Element)

			w.transforms[i].VX -= dir.X * force / mi * dt
			w.transforms[i].VY -= dir.Y * force / mi * dt
			w.transforms[i].VZ -= dir.Z * force / mi * dt
			w.transforms[j].VX += dir.X * force / mj * dt
			w.transforms[j].VY += dir.Y * force / mj * dt
			w.transforms[j].VZ += dir.Z * force / mj * dt

			clampVelocity(&w.transforms[i], w.params.MaxVelocity)
			clampVelocity(&w.transforms[j], w.params.MaxVelocity)
		}
	}
}

// applyBondSprings runs the parent-edge springs. A child is pulled toward
// its slot anchor: the parent position offset by the slot direction
// (rotated with the parent) at the ideal bond distance. Edges where both
// ends are ring-tagged use a plain distance spring instead, since ring
// dynamics owns their angular placement. Springs stretched beyond the
// break stress snap the bond, except on shielded or freshly formed edges.
func (w *World) applyBondSprings() {
	dt := w.params.FixedDeltaTime

	for id := range w.states {
		st := &w.states[id]
		parent := st.Parent
		if parent == None {
			continue
		}

		tr := &w.transforms[id]
		ptr := &w.transforms[parent]
		mass := w.catalog.Mass(w.atoms[id].Element)

		var disp Vec3
		if st.InRing && w.states[parent].InRing {
			delta := tr.Pos().Sub(ptr.Pos())
			dist := delta.Length()
			if dist == 0 {
				continue
			}
			disp = delta.Scale((w.params.BondIdealDist - dist) / dist)
		} else {
			anchor := w.slotAnchor(parent, st.ParentSlot)
			disp = anchor.Sub(tr.Pos())
		}

		stress := disp.Length()
		if stress > w.params.BondBreakStress &&
			!st.Shielded && !w.states[parent].Shielded && !st.JustBonded {
			w.logger.Debugf("bond %d-%d snapped at stress %.1f", id, parent, stress)
			w.breakBond(id)
			continue
		}

		k := w.params.BondSpringK / mass * dt
		tr.VX += disp.X * k
		tr.VY += disp.Y * k
		tr.VZ += disp.Z * k

		// Reaction on the parent, half strength so chains settle from
		// the root outward.
		pk := w.params.BondSpringK / w.catalog.Mass(w.atoms[parent].Element) * dt * 0.5
		ptr.VX -= disp.X * pk
		ptr.VY -= disp.Y * pk
		ptr.VZ -= disp.Z * pk

		clampVelocity(tr, w.params.MaxVelocity)
		clampVelocity(ptr, w.params.MaxVelocity)
	}
}

// slotAnchor is the world-space position a child docked at the given slot
// of parent should occupy.
func (w *World) slotAnchor(parent, slot int) Vec3 {
	ptr := w.transforms[parent]
	elem, ok := w.catalog.Element(w.atoms[parent].Element)
	if !ok || slot == None || slot >= len(elem.Slots) {
		return ptr.Pos()
	}
	dir := elem.Slots[slot]
	planar := Vec2{dir.X, dir.Y}.Rotate(ptr.Rotation)
	return ptr.Pos().Add(Vec3{planar.X, planar.Y, dir.Z}.Scale(w.params.BondIdealDist))
}

// applyCycleSprings runs the distance-only springs on cycle edges, at a
// multiple of the normal bond stiffness. Cycle springs never break under
// stress; the ring is dissolved explicitly instead.
func (w *World) applyCycleSprings() {
	dt := w.params.FixedDeltaTime
	k := w.params.BondSpringK * w.params.RingSpringMultiplier

	for i := range w.states {
		j := w.states[i].CycleBond
		if j == None || j < i {
			continue
		}

		delta := w.transforms[j].Pos().Sub(w.transforms[i].Pos())
		dist := delta.Length()
		if dist == 0 {
			continue
		}
		corr := delta.Scale((dist - w.params.BondIdealDist) / dist)

		mi := w.catalog.Mass(w.atoms[i].Element)
		mj := w.catalog.Mass(w.atoms[j].Element)

		w.transforms[i].VX += corr.X * k / mi * dt
		w.transforms[i].VY += corr.Y * k / mi * dt
		w.transforms[i].VZ += corr.Z * k / mi * dt
		w.transforms[j].VX -= corr.X * k / mj * dt
		w.transforms[j].VY -= corr.Y * k / mj * dt
		w.transforms[j].VZ -= corr.Z * k / mj * dt

		clampVelocity(&w.transforms[i], w.params.MaxVelocity)
		clampVelocity(&w.transforms[j], w.params.MaxVelocity)
	}
}

// updateRingDynamics settles forming rings onto their target polygons.
// Each ring instance moves as a loose rigid body: the shared drift
// velocity is preserved while the members are pulled toward their target
// vertices, translated so the polygon follows the ring's live centroid.
// Docking progress tracks distance to target and is capped below
// completion until every member is inside the structure's completion
// threshold, at which point the whole ring snaps rigid at once.
func (w *World) updateRingDynamics() {
	dt := w.params.FixedDeltaTime

	byInstance := make(map[int][]int)
	for id := range w.states {
		st := &w.states[id]
		if st.InRing && st.RingInstance != None && st.RingIndex != None {
			byInstance[st.RingInstance] = append(byInstance[st.RingInstance], id)
		}
	}

	for _, members := range byInstance {
		n := float64(len(members))
		if n < 2 {
			continue
		}

		structure, haveStructure := w.catalog.FindStructure(
			w.states[members[0]].RingSize, w.atoms[members[0]].Element)
		formationSpeed := w.params.FormationPullMultiplier
		formationDamping := 0.9
		maxPull := w.params.MaxVelocity
		completion := w.params.BondIdealDist * 0.15
		if haveStructure {
			if structure.FormationSpeed > 0 {
				formationSpeed = structure.FormationSpeed * w.params.FormationPullMultiplier
			}
			if structure.FormationDamping > 0 {
				formationDamping = structure.FormationDamping
			}
			if structure.MaxFormationSpeed > 0 {
				maxPull = structure.MaxFormationSpeed
			}
			if structure.CompletionThreshold > 0 {
				completion = structure.CompletionThreshold
			}
		}

		var cx, cy, tcx, tcy, dvx, dvy float64
		for _, m := range members {
			cx += w.transforms[m].X
			cy += w.transforms[m].Y
			tcx += w.states[m].TargetX
			tcy += w.states[m].TargetY
			dvx += w.transforms[m].VX
			dvy += w.transforms[m].VY
		}
		cx, cy = cx/n, cy/n
		tcx, tcy = tcx/n, tcy/n
		dvx, dvy = dvx/n, dvy/n

		allSettled := true
		for _, m := range members {
			st := &w.states[m]
			tr := &w.transforms[m]

			// Polygon offset anchored on the live centroid.
			tx := cx + (st.TargetX - tcx)
			ty := cy + (st.TargetY - tcy)

			dx, dy := tx-tr.X, ty-tr.Y
			dist := math.Hypot(dx, dy)
			if dist > completion {
				allSettled = false
			}

			pull := formationSpeed * dt
			px, py := dx*pull, dy*pull
			if p := math.Hypot(px, py); p > maxPull*dt {
				s := maxPull * dt / p
				px, py = px*s, py*s
			}

			// Damp only the motion relative to the ring's drift.
			tr.VX = dvx + (tr.VX-dvx)*formationDamping + px
			tr.VY = dvy + (tr.VY-dvy)*formationDamping + py
			clampVelocity(tr, w.params.MaxVelocity)

			if st.DockingProgress < 1 {
				progress := 1 - dist/(w.params.BondIdealDist*2)
				if progress < 0 {
					progress = 0
				}
				if progress > 0.99 {
					progress = 0.99
				}
				if progress > st.DockingProgress {
					st.DockingProgress = progress
				}
			}
		}

		if allSettled {
			for _, m := range members {
				st := &w.states[m]
				tr := &w.transforms[m]
				tr.X = cx + (st.TargetX - tcx)
				tr.Y = cy + (st.TargetY - tcy)
				tr.VX, tr.VY = dvx, dvy
				st.DockingProgress = 1
			}
		}
	}
}

// applyFoldingForces runs the long-range shaping forces. Seeking elements
// with spare valence attract each other across molecules, and terminal
// atoms of the same molecule pull toward each other so long chains curl
// back on themselves far enough for cycle bonding to see the ends. Both
// effects run only inside zones active enough to promote folding.
func (w *World) applyFoldingForces() {
	dt := w.params.FixedDeltaTime

	for i := range w.states {
		tr := &w.transforms[i]
		if w.zones.RangeMultiplier(tr.X, tr.Y) < w.params.ZoneActivityThreshold {
			continue
		}

		elem, ok := w.catalog.Element(w.atoms[i].Element)
		if !ok {
			continue
		}
		seeking := elem.Seeking && w.canAcceptBond(i)
		terminal := w.states[i].Clustered && w.states[i].Terminal() && !w.states[i].InRing
		if !seeking && !terminal {
			continue
		}

		pos := tr.Pos()
		reach := w.params.AffinityMaxDist
		if w.params.FoldingMaxDist > reach {
			reach = w.params.FoldingMaxDist
		}
		mass := w.catalog.Mass(w.atoms[i].Element)

		for _, j := range w.grid.Nearby(pos.X, pos.Y, reach) {
			if j == i {
				continue
			}
			delta := w.transforms[j].Pos().Sub(pos)
			dist := delta.Length()
			if dist == 0 {
				continue
			}

			sameMol := w.states[i].MoleculeID == w.states[j].MoleculeID

			var strength float64
			switch {
			case seeking && !sameMol &&
				dist >= w.params.AffinityMinDist && dist <= w.params.AffinityMaxDist:
				other, okJ := w.catalog.Element(w.atoms[j].Element)
				if okJ && other.Seeking && w.canAcceptBond(j) {
					strength = w.params.AffinityStrengthExternal
				}
			case terminal && sameMol && i != j &&
				w.states[j].Terminal() && !w.states[j].InRing &&
				dist >= w.params.FoldingMinDist && dist <= w.params.FoldingMaxDist:
				strength = w.params.FoldingStrength
			case seeking && sameMol &&
				dist >= w.params.AffinityMinDist && dist <= w.params.AffinityMaxDist:
				other, okJ := w.catalog.Element(w.atoms[j].Element)
				if okJ && other.Seeking {
					strength = w.params.AffinityStrengthInternal
				}
			}
			if strength == 0 {
				continue
			}

			// Falls off linearly toward the outer edge of the band.
			falloff := 1 - dist/reach
			dir := delta.Scale(1 / dist)
			a := strength * falloff / mass * dt

			tr.VX += dir.X * a
			tr.VY += dir.Y * a
			tr.VZ += dir.Z * a
		}
		clampVelocity(tr, w.params.MaxVelocity)
	}
}

// updateDocking advances the docking timer of clustered entities outside
// rings. Ring members get their progress from ring dynamics instead.
func (w *World) updateDocking() {
	for i := range w.states {
		st := &w.states[i]
		if !st.Clustered || st.InRing || st.DockingProgress >= 1 {
			continue
		}
		st.DockingProgress += w.params.BondDockingSpeed
		if st.DockingProgress > 1 {
			st.DockingProgress = 1
		}
	}
}

// integrate is the final per-tick stage: thermal jitter, zone drag,
// global drag, Euler position update, and depth handling. Fully settled
// ring members are flattened toward the simulation plane instead of
// bouncing within it.
func (w *World) integrate() {
	dt := w.params.FixedDeltaTime
	t := float64(w.tick) * dt

	for i := range w.transforms {
		tr := &w.transforms[i]
		st := &w.states[i]

		settledRing := st.InRing && st.DockingProgress >= 0.99

		if !st.Shielded && !settledRing {
			jitter := w.params.ThermalJitter
			if st.Clustered {
				jitter *= 0.3
			}
			tr.VX += w.noise.Eval3(tr.X*0.01, tr.Y*0.01, t) * jitter
			tr.VY += w.noise.Eval3(tr.Y*0.01, tr.X*0.01, t+31.7) * jitter
		}

		w.zones.Apply(tr)

		tr.VX *= w.params.DragCoefficient
		tr.VY *= w.params.DragCoefficient
		tr.VZ *= w.params.DragCoefficient
		clampVelocity(tr, w.params.MaxVelocity)

		tr.X += tr.VX * dt
		tr.Y += tr.VY * dt
		tr.Z += tr.VZ * dt

		if settledRing {
			tr.VZ -= tr.Z * w.params.ZFlattenStrength * dt
			tr.VZ *= w.params.ZDamping
		} else {
			if tr.Z < w.params.WorldDepthMin {
				tr.Z = w.params.WorldDepthMin
				tr.VZ *= w.params.WorldBounce
			} else if tr.Z > w.params.WorldDepthMax {
				tr.Z = w.params.WorldDepthMax
				tr.VZ *= w.params.WorldBounce
			}
		}
	}
}
