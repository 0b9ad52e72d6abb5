package sim

import (
	"fmt"
	"sync"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// WorldID identifies one simulation world.
type WorldID string

// World is one bonded-particle simulation: three index-aligned component
// slices (transform, atom, bond state), a spatial index over them, and
// the physics and bonding stages that advance them. Entities are never
// deleted; a fully broken atom simply becomes its own one-atom molecule.
//
// All exported methods are safe for concurrent use. The tick loop takes
// the write lock for a whole step, so readers see consistent topology.
type World struct {
	mu      sync.RWMutex
	id      WorldID
	catalog *Catalog
	zones   ZoneSet
	params  Params

	transforms []Transform
	atoms      []Atom
	states     []BondState

	grid             *SpatialGrid
	tick             uint64
	nextRingInstance int

	noise opensimplex.Noise

	logger        Logger
	notifications *NotificationManager

	stopCh    chan struct{}
	isRunning bool
}

// NewWorld creates an empty world over the given catalog.
func NewWorld(id WorldID, catalog *Catalog) *World {
	return &World{
		id:      id,
		catalog: catalog,
		params:  DefaultParams(),
		grid:    NewSpatialGrid(DefaultParams().GridCellSize),
		noise:   opensimplex.New(time.Now().UnixNano()),
		logger:  NewNoOpLogger(),
		stopCh:  make(chan struct{}),
	}
}

// WithParams replaces the physical tuning and returns the world for
// method chaining.
func (w *World) WithParams(p Params) *World {
	w.params = p
	w.grid = NewSpatialGrid(p.GridCellSize)
	return w
}

// WithZones sets the zone layout and returns the world for method chaining.
func (w *World) WithZones(zones ...Zone) *World {
	w.zones = ZoneSet(zones)
	return w
}

// WithLogger sets the logger and returns the world for method chaining.
func (w *World) WithLogger(l Logger) *World {
	if l != nil {
		w.logger = l
	}
	return w
}

// WithNotifications attaches a notification manager and returns the world
// for method chaining.
func (w *World) WithNotifications(nm *NotificationManager) *World {
	w.notifications = nm
	return w
}

// WithSeed makes the jitter noise deterministic, for reproducible runs.
func (w *World) WithSeed(seed int64) *World {
	w.noise = opensimplex.New(seed)
	return w
}

// ID returns the world identifier.
func (w *World) ID() WorldID { return w.id }

// Catalog returns the catalog the world was built over.
func (w *World) Catalog() *Catalog { return w.catalog }

// Params returns a copy of the world's tuning.
func (w *World) Params() Params {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.params
}

// Tick returns the number of completed steps.
func (w *World) Tick() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}

// Count returns the number of entities.
func (w *World) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.states)
}

// Spawn adds one atom of the given element at a position and returns its
// entity id. The atom starts isolated: its own molecule of one.
func (w *World) Spawn(element ElementID, x, y, z float64) (int, error) {
	if _, ok := w.catalog.Element(element); !ok {
		return None, fmt.Errorf("spawn: unknown element %q", element)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	id := len(w.states)
	w.transforms = append(w.transforms, Transform{X: x, Y: y, Z: z})
	w.atoms = append(w.atoms, Atom{Element: element})
	w.states = append(w.states, isolatedState(id))
	return id, nil
}

// SpawnCharged adds one atom with a partial charge.
func (w *World) SpawnCharged(element ElementID, x, y, z, charge float64) (int, error) {
	id, err := w.Spawn(element, x, y, z)
	if err != nil {
		return None, err
	}
	w.mu.Lock()
	w.atoms[id].PartialCharge = charge
	w.mu.Unlock()
	return id, nil
}

// Step advances the simulation by one fixed-timestep tick: spatial index
// rebuild, forces, ring settling, docking, the autonomous bonding scan,
// then integration. The whole step runs under the write lock.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick++

	w.grid.Rebuild(w.transforms)

	w.applyElectrostatics()
	w.applyBondSprings()
	w.applyCycleSprings()
	w.updateRingDynamics()
	w.applyFoldingForces()
	w.updateDocking()
	w.autonomousBonding()
	w.integrate()

	for i := range w.states {
		w.states[i].JustBonded = false
		if w.states[i].ReleaseTimer > 0 {
			w.states[i].ReleaseTimer--
		}
	}
}

// Run starts a background goroutine stepping the world at the given
// interval. It returns immediately; a world already running is left
// alone.
func (w *World) Run(interval time.Duration) {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return
	}
	// Create a new stop channel for this run (allows restart after stop)
	w.stopCh = make(chan struct{})
	w.isRunning = true
	w.mu.Unlock()

	// Run in a goroutine so it doesn't block the caller
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.Step()
			case <-w.stopCh:
				w.mu.Lock()
				w.isRunning = false
				w.mu.Unlock()
				return
			}
		}
	}()
}

// Stop signals the background loop to halt. After stopping, Run() can be
// called again to restart.
func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isRunning {
		return
	}
	close(w.stopCh)
}

// IsRunning reports whether the background loop is active.
func (w *World) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isRunning
}

// TryBond attempts to bond source onto target's molecule.
func (w *World) TryBond(source, target int, forced bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tryBond(source, target, forced)
}

// TryCycleBond attempts to close a ring between two entities of the same
// molecule.
func (w *World) TryCycleBond(i, j int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tryCycleBond(i, j)
}

// BreakBond detaches an entity from its parent.
func (w *World) BreakBond(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.breakBond(id)
}

// BreakAllBonds fully isolates an entity.
func (w *World) BreakAllBonds(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.breakAllBonds(id)
}

// SetShielded marks an entity as under external control. Shielded atoms
// skip spontaneous bonding, stress breaking and thermal jitter. Dropping
// the shield starts a short cooldown before the atom rejoins the
// autonomous bonding scan.
func (w *World) SetShielded(id int, shielded bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id >= 0 && id < len(w.states) {
		st := &w.states[id]
		if st.Shielded && !shielded {
			st.ReleaseTimer = w.params.ShieldReleaseTicks
		}
		st.Shielded = shielded
	}
}

// SetCharge sets the partial charge of an atom.
func (w *World) SetCharge(id int, charge float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id >= 0 && id < len(w.atoms) {
		w.atoms[id].PartialCharge = charge
	}
}

// EntityView is a consistent read-only copy of one entity.
type EntityView struct {
	ID        int       `json:"id"`
	Transform Transform `json:"transform"`
	Atom      Atom      `json:"atom"`
	State     BondState `json:"state"`
}

// Entity returns a copy of one entity's components.
func (w *World) Entity(id int) (EntityView, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if id < 0 || id >= len(w.states) {
		return EntityView{}, false
	}
	return EntityView{
		ID:        id,
		Transform: w.transforms[id],
		Atom:      w.atoms[id],
		State:     w.states[id],
	}, true
}

// Entities returns a copy of every entity.
func (w *World) Entities() []EntityView {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]EntityView, len(w.states))
	for i := range w.states {
		out[i] = EntityView{
			ID:        i,
			Transform: w.transforms[i],
			Atom:      w.atoms[i],
			State:     w.states[i],
		}
	}
	return out
}

// MoleculeInfo describes one connected molecule found in the world.
type MoleculeInfo struct {
	Root        int         `json:"root"`
	Members     []int       `json:"members"`
	Composition Composition `json:"composition"`
	Formula     string      `json:"formula"`
	// Name of the matching catalog molecule, empty when unknown.
	Name string `json:"name,omitempty"`
}

// Molecules walks true connectivity (not the memoized molecule ids) and
// returns a census of every molecule with at least minSize atoms, with
// formulas and catalog matches.
func (w *World) Molecules(minSize int) []MoleculeInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()

	seen := make([]bool, len(w.states))
	var out []MoleculeInfo

	for i := range w.states {
		if seen[i] {
			continue
		}
		members := connectedMembers(w.states, i)
		root := findRoot(w.states, i, w.params.MaxTraversalDepth)

		comp := make(Composition)
		for _, m := range members {
			seen[m] = true
			comp[w.atoms[m].Element]++
		}
		if len(members) < minSize {
			continue
		}

		info := MoleculeInfo{
			Root:        root,
			Members:     members,
			Composition: comp,
			Formula:     comp.Formula(),
		}
		if named, ok := w.catalog.FindMoleculeByComposition(comp); ok {
			info.Name = named.Name
		}
		out = append(out, info)
	}
	return out
}

// MoleculeOf returns the memoized molecule id of an entity.
func (w *World) MoleculeOf(id int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if id < 0 || id >= len(w.states) {
		return None
	}
	return w.states[id].MoleculeID
}
