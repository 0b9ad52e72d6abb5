package main

import (
	"fmt"

	"github.com/mauro3422/lifesim/internal/sim"
)

// Two small scenarios against the demo catalog: a six-carbon chain left
// to curl and close into a hexagon, and a loose pool of atoms bonding on
// their own. Both print what the world looks like at the end.

func main() {
	runHexagonScenario()
	runSoupScenario()
}

// runHexagonScenario seeds a bonded six-carbon chain bent into an arc,
// then steps until the chain ends meet and the ring snaps.
func runHexagonScenario() {
	fmt.Println("--- hexagon scenario ---")

	catalog := demoCatalog()
	world := sim.NewWorld("hexagon-demo", catalog).WithSeed(42)

	params := world.Params()

	// An arc of six atoms at roughly bonding distance, ends curled
	// toward each other.
	positions := [][2]float64{
		{0, 0}, {40, 10}, {75, 35}, {85, 75}, {60, 105}, {20, 105},
	}
	ids := make([]int, 0, len(positions))
	for _, p := range positions {
		id, err := world.Spawn("C", p[0], p[1], 0)
		if err != nil {
			panic(err)
		}
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		if err := world.TryBond(ids[i], ids[i-1], true); err != nil {
			panic(err)
		}
	}

	for range 600 {
		world.Step()
	}

	for _, m := range world.Molecules(2) {
		fmt.Printf("molecule %s (%s): %d atoms\n", m.Formula, m.Name, len(m.Members))
	}
	if e, ok := world.Entity(ids[0]); ok && e.State.InRing {
		fmt.Printf("ring closed: size=%d docking=%.2f\n", e.State.RingSize, e.State.DockingProgress)
	} else {
		fmt.Printf("ring not closed after %d ticks (bond range %.0f)\n", world.Tick(), params.BondAutoRange)
	}
	fmt.Println()
}

// runSoupScenario scatters unbonded atoms in a warm zone and lets the
// autonomous bonding scan do all the work.
func runSoupScenario() {
	fmt.Println("--- soup scenario ---")

	catalog := demoCatalog()
	world := sim.NewWorld("soup-demo", catalog).
		WithSeed(7).
		WithZones(sim.Zone{
			Name:            "warm-pool",
			MinX:            -500,
			MinY:            -500,
			MaxX:            500,
			MaxY:            500,
			RangeMultiplier: 1.5,
			AngleMultiplier: 1.2,
		})

	elements := []sim.ElementID{"C", "C", "H", "H", "O"}
	for i := range 60 {
		x := float64((i%10)*70 - 350)
		y := float64((i/10)*70 - 200)
		if _, err := world.Spawn(elements[i%len(elements)], x, y, 0); err != nil {
			panic(err)
		}
	}

	for range 2000 {
		world.Step()
	}

	mols := world.Molecules(2)
	fmt.Printf("%d molecules formed from 60 atoms after %d ticks\n", len(mols), world.Tick())
	for _, m := range mols {
		name := m.Name
		if name == "" {
			name = "unnamed"
		}
		fmt.Printf("  %-10s %s\n", m.Formula, name)
	}
}
