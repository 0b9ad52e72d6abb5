package sim

// Zone is a rectangular region of the world with its own chemical
// modifiers. Inside a zone, spontaneous bonding range and slot-angle
// tolerance are scaled by the zone's multipliers, and an optional extra
// drag is applied to velocities each tick.
type Zone struct {
	Name            string
	MinX, MinY      float64
	MaxX, MaxY      float64
	RangeMultiplier float64
	AngleMultiplier float64
	// Drag of 1.0 means no extra damping.
	Drag float64
}

// Contains reports whether the planar point lies inside the zone.
func (z Zone) Contains(x, y float64) bool {
	return x >= z.MinX && x <= z.MaxX && y >= z.MinY && y <= z.MaxY
}

// ZoneSet answers zone-modifier queries by position. The first zone
// containing a point wins; outside every zone all multipliers are 1.
type ZoneSet []Zone

// RangeMultiplier returns the bond-range multiplier at a position.
func (zs ZoneSet) RangeMultiplier(x, y float64) float64 {
	for _, z := range zs {
		if z.Contains(x, y) {
			return z.RangeMultiplier
		}
	}
	return 1
}

// AngleMultiplier returns the bond-angle multiplier at a position.
func (zs ZoneSet) AngleMultiplier(x, y float64) float64 {
	for _, z := range zs {
		if z.Contains(x, y) {
			return z.AngleMultiplier
		}
	}
	return 1
}

// Apply applies per-tick zone effects to a transform.
func (zs ZoneSet) Apply(tr *Transform) {
	for _, z := range zs {
		if z.Drag > 0 && z.Drag != 1 && z.Contains(tr.X, tr.Y) {
			tr.VX *= z.Drag
			tr.VY *= z.Drag
			tr.VZ *= z.Drag
			return
		}
	}
}
