package sim

import "sort"

const rootUncached = -2

type bondCandidate struct {
	id   int
	dist float64
}

// autonomousBonding is the per-tick bonding scan. Every eligible entity
// queries the spatial grid within its zone-scaled bonding range and works
// through its neighbors nearest-first. Neighbors in a different molecule
// are attached through tryBond (retrying with the roles swapped when the
// scanning side is the one with a free parent link), unless either
// molecule's root is shielded; neighbors in the
// same molecule close a cycle when the hop count along the hierarchy
// falls inside the ring window. At most one bond event per entity per
// tick. Callers must hold the world lock.
func (w *World) autonomousBonding() {
	roots := make([]int, len(w.states))
	for i := range roots {
		roots[i] = rootUncached
	}
	rootOf := func(id int) int {
		if roots[id] == rootUncached {
			roots[id] = findRoot(w.states, id, w.params.MaxTraversalDepth)
		}
		return roots[id]
	}
	resetRoots := func() {
		for i := range roots {
			roots[i] = rootUncached
		}
	}

	for i := range w.states {
		st := &w.states[i]
		if st.JustBonded || st.Shielded || st.ReleaseTimer > 0 {
			continue
		}
		if st.Locked() && st.InRing {
			continue
		}
		if _, ok := w.catalog.Element(w.atoms[i].Element); !ok {
			continue
		}

		pos := w.transforms[i].Pos()
		reach := w.params.BondAutoRange * w.zones.RangeMultiplier(pos.X, pos.Y)

		nearby := w.grid.Nearby(pos.X, pos.Y, reach)
		candidates := make([]bondCandidate, 0, len(nearby))
		for _, j := range nearby {
			if j <= i || w.states[j].JustBonded || w.states[j].Shielded || w.states[j].ReleaseTimer > 0 {
				continue
			}
			if d := pos.DistanceTo(w.transforms[j].Pos()); d <= reach {
				candidates = append(candidates, bondCandidate{id: j, dist: d})
			}
		}
		sort.Slice(candidates, func(a, b int) bool {
			return candidates[a].dist < candidates[b].dist
		})

		for _, c := range candidates {
			if w.states[i].JustBonded {
				break
			}
			j := c.id

			rootI, rootJ := rootOf(i), rootOf(j)
			if rootI == rootJ {
				if w.states[i].CycleBond != None || w.states[j].CycleBond != None {
					continue
				}
				hops, ok := hierarchyDistance(w.states, i, j, w.params.MaxTraversalDepth)
				if !ok || hops < w.params.MinRingHops || hops > w.params.MaxRingHops {
					continue
				}
				if err := w.tryCycleBond(i, j); err == nil {
					w.states[i].JustBonded = true
					w.states[j].JustBonded = true
				}
				continue
			}

			// A molecule whose root is externally held must not grow.
			if w.states[rootI].Shielded || w.states[rootJ].Shielded {
				continue
			}

			if err := w.tryBond(i, j, false); err == nil {
				w.states[i].JustBonded = true
				w.states[j].JustBonded = true
				resetRoots()
				continue
			}
			// The scanning side may already be mid-molecule while the
			// neighbor is the free end; the same pair bonds fine with
			// the roles swapped.
			if err := w.tryBond(j, i, false); err == nil {
				w.states[i].JustBonded = true
				w.states[j].JustBonded = true
				resetRoots()
			}
		}
	}
}
