package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mauro3422/lifesim/internal/sim"
)

type seedAtom struct {
	Element string  `json:"element"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Charge  float64 `json:"charge,omitempty"`
	Count   int     `json:"count,omitempty"`
}

func main() {
	var (
		catalogFile = flag.String("catalog-file", "", "path to catalog JSON file (required)")
		ticks       = flag.Int("ticks", 1000, "number of ticks to run")
		seedFile    = flag.String("seed", "", "path to seed atoms JSON file (optional)")
		spawn       = flag.Int("spawn", 0, "number of random atoms to scatter (in addition to seeds)")
		spread      = flag.Float64("spread", 400, "half-width of the square the random atoms are scattered over")
		randSeed    = flag.Int64("rand-seed", 0, "random seed (0 uses the current time)")
		worldID     = flag.String("world-id", "simulation", "world ID")
	)
	flag.Parse()

	if *catalogFile == "" {
		fmt.Fprintf(os.Stderr, "error: --catalog-file is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, catalog, zones, err := loadCatalogFromFile(*catalogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading catalog: %v\n", err)
		os.Exit(1)
	}

	world := sim.NewWorld(sim.WorldID(*worldID), catalog).WithZones(zones...)
	if *randSeed != 0 {
		world.WithSeed(*randSeed)
	}

	if *seedFile != "" {
		if err := loadSeedAtoms(world, *seedFile); err != nil {
			fmt.Fprintf(os.Stderr, "error loading seed atoms: %v\n", err)
			os.Exit(1)
		}
	}

	if *spawn > 0 {
		if err := scatterAtoms(world, catalog, *spawn, *spread, *randSeed); err != nil {
			fmt.Fprintf(os.Stderr, "error scattering atoms: %v\n", err)
			os.Exit(1)
		}
	}

	if world.Count() == 0 {
		fmt.Fprintf(os.Stderr, "error: nothing to simulate (use --seed or --spawn)\n")
		os.Exit(1)
	}

	start := time.Now()
	for range *ticks {
		world.Step()
	}
	elapsed := time.Since(start)

	printSummary(cfg.Name, *ticks, elapsed, world)
}

func loadCatalogFromFile(path string) (sim.CatalogConfig, *sim.Catalog, sim.ZoneSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.CatalogConfig{}, nil, nil, fmt.Errorf("reading catalog file: %w", err)
	}

	cfg, err := sim.ParseCatalogConfig(data)
	if err != nil {
		return sim.CatalogConfig{}, nil, nil, fmt.Errorf("parsing catalog JSON: %w", err)
	}

	catalog, zones, err := sim.BuildCatalog(cfg)
	if err != nil {
		return sim.CatalogConfig{}, nil, nil, fmt.Errorf("building catalog: %w", err)
	}

	return cfg, catalog, zones, nil
}

func loadSeedAtoms(world *sim.World, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	var seeds []seedAtom
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("parsing seed JSON: %w", err)
	}

	for _, seed := range seeds {
		count := seed.Count
		if count <= 0 {
			count = 1
		}
		for range count {
			if _, err := world.SpawnCharged(sim.ElementID(seed.Element), seed.X, seed.Y, seed.Z, seed.Charge); err != nil {
				return err
			}
		}
	}

	return nil
}

// scatterAtoms spawns n atoms at random positions, cycling through the
// catalog's elements so every element appears in the soup.
func scatterAtoms(world *sim.World, catalog *sim.Catalog, n int, spread float64, randSeed int64) error {
	ids := catalog.ElementIDs()
	if len(ids) == 0 {
		return fmt.Errorf("catalog has no elements")
	}

	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(randSeed))

	for i := range n {
		element := ids[i%len(ids)]
		x := (rng.Float64()*2 - 1) * spread
		y := (rng.Float64()*2 - 1) * spread
		if _, err := world.Spawn(element, x, y, 0); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(catalogName string, ticks int, elapsed time.Duration, world *sim.World) {
	fmt.Printf("Simulation finished (catalog=%s, ticks=%s, atoms=%s, %s elapsed)\n",
		catalogName,
		humanize.Comma(int64(ticks)),
		humanize.Comma(int64(world.Count())),
		elapsed.Round(time.Millisecond))

	mols := world.Molecules(2)
	sort.Slice(mols, func(i, j int) bool {
		return len(mols[i].Members) > len(mols[j].Members)
	})

	fmt.Printf("Molecules (%d with two or more atoms):\n", len(mols))
	for _, m := range mols {
		name := m.Name
		if name == "" {
			name = "unknown"
		}
		fmt.Printf("  %-12s %-10s %d atoms\n", m.Formula, name, len(m.Members))
	}

	// Count free atoms by element
	counts := make(map[sim.ElementID]int)
	for _, e := range world.Entities() {
		if e.State.BondCount() == 0 {
			counts[e.Atom.Element]++
		}
	}

	fmt.Println("Free atoms:")
	for _, id := range world.Catalog().ElementIDs() {
		if counts[id] > 0 {
			fmt.Printf("  %s: %s\n", id, humanize.Comma(int64(counts[id])))
		}
	}
}
