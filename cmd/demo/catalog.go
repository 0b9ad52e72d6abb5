package main

import "github.com/mauro3422/lifesim/internal/sim"

// demoCatalog builds a small prebiotic chemistry in code: a carbon-like
// backbone element with four planar slots, a one-slot terminator, a
// two-slot bridge, and ring structures for the sizes the backbone can
// close.
func demoCatalog() *sim.Catalog {
	return sim.NewCatalog("prebiotic-demo").
		WithElements(
			sim.Element{
				ID:         "C",
				Name:       "Carbon",
				MaxBonds:   4,
				AtomicMass: 12,
				Slots: []sim.Vec3{
					{X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: -1},
				},
				Seeking: true,
			},
			sim.Element{
				ID:         "H",
				Name:       "Hydrogen",
				MaxBonds:   1,
				AtomicMass: 1,
				Slots:      []sim.Vec3{{X: 1, Y: 0}},
			},
			sim.Element{
				ID:         "O",
				Name:       "Oxygen",
				MaxBonds:   2,
				AtomicMass: 16,
				Slots:      []sim.Vec3{{X: 1, Y: 0}, {X: -1, Y: 0}},
				Seeking:    true,
			},
		).
		WithStructures(
			sim.Structure{
				Name:             "carbon-square",
				RingSize:         4,
				Element:          "C",
				InstantFormation: true,
			},
			sim.Structure{
				Name:             "carbon-hexagon",
				RingSize:         6,
				Element:          "C",
				InstantFormation: true,
			},
		).
		WithMolecules(
			sim.NamedMolecule{
				ID:          "benzene-like",
				Name:        "Hexamer",
				Category:    "ring",
				Description: "six-carbon ring",
				Composition: sim.Composition{"C": 6},
			},
			sim.NamedMolecule{
				ID:          "water-like",
				Name:        "Oxide",
				Category:    "fragment",
				Description: "one oxygen, two hydrogens",
				Composition: sim.Composition{"O": 1, "H": 2},
			},
		)
}
