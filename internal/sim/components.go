package sim

// None marks an empty entity reference in parent, slot and cycle fields.
const None = -1

// Transform holds the position and velocity of one entity. Index i in the
// transform slice, the atom slice and the bond-state slice always refers to
// the same logical atom. Transforms are mutated by the physics stages only;
// external layers (camera, renderer) read them.
type Transform struct {
	X, Y, Z    float64
	VX, VY, VZ float64
	Rotation   float64
}

func (t Transform) Pos() Vec3 {
	return Vec3{t.X, t.Y, t.Z}
}

// Atom identifies the element of an entity. Element properties (mass, max
// bonds, slot directions) live in the Catalog; the partial charge drives
// the electrostatic stage and may be adjusted by external game logic.
type Atom struct {
	Element       ElementID `json:"element"`
	PartialCharge float64   `json:"partial_charge"`
}

// BondState carries the full bonding topology of one entity.
//
// Parent edges form a forest; cycles are expressed only through CycleBond,
// which is always symmetric. MoleculeID is a memoized connectivity root:
// equality is a cheap necessary condition for "same molecule", re-derived
// by propagation after every topology mutation. OccupiedSlots tracks which
// of the element's valence-slot directions are taken by children.
type BondState struct {
	Clustered       bool
	MoleculeID      int
	Parent          int
	ParentSlot      int
	ChildCount      int
	OccupiedSlots   uint32
	DockingProgress float64
	Shielded        bool
	// Ticks left in the post-shield cooldown. A freshly released atom
	// sits out the autonomous bonding scan until this reaches zero.
	ReleaseTimer int

	CycleBond    int
	InRing       bool
	RingSize     int
	RingIndex    int
	RingInstance int
	// Absolute snap target assigned at ring formation, meaningful only
	// while InRing and settling.
	TargetX, TargetY float64

	JustBonded bool
}

// isolatedState is the bonding state of an atom with no bonds at all.
// Isolated atoms are their own molecule root.
func isolatedState(self int) BondState {
	return BondState{
		MoleculeID:      self,
		Parent:          None,
		ParentSlot:      None,
		CycleBond:       None,
		RingIndex:       None,
		RingInstance:    None,
		DockingProgress: 1,
	}
}

// BondCount is the number of bonds the entity currently has: its parent
// link, its children, and its cycle partner if any.
func (s *BondState) BondCount() int {
	n := s.ChildCount
	if s.Parent != None {
		n++
	}
	if s.CycleBond != None {
		n++
	}
	return n
}

// Terminal reports whether the entity has exactly one bond.
func (s *BondState) Terminal() bool {
	return s.BondCount() == 1
}

// Locked reports whether the entity is settled into a molecule: clustered,
// docking complete, and not under external control. Locked entities do not
// participate in spontaneous re-bonding as a source.
func (s *BondState) Locked() bool {
	return s.Clustered && s.DockingProgress >= 0.99 && !s.Shielded
}
