package sim

import (
	"math"
	"sort"
)

// ElementID is the identifier of an element type (e.g. "C", "H", "O").
type ElementID string

// Element describes a bondable atom type. Slots are unit direction vectors
// defining where bonds may physically attach; their count always equals
// MaxBonds.
type Element struct {
	ID         ElementID
	Name       string
	MaxBonds   int
	AtomicMass float64
	Slots      []Vec3
	// Seeking elements below full valence attract each other at long
	// range during the folding/affinity stage.
	Seeking bool
}

// Structure describes the geometry and formation dynamics of a ring of a
// given size and element.
type Structure struct {
	Name              string
	RingSize          int
	Element           ElementID
	Damping           float64
	GlobalDamping     float64
	FormationSpeed    float64
	FormationDamping  float64
	MaxFormationSpeed float64
	// Distance within which every member must be of its target before
	// the ring snaps rigid.
	CompletionThreshold float64
	RotationOffset      float64
	InstantFormation    bool
}

// IdealOffsets returns the vertex offsets of a regular polygon with
// RingSize vertices around the origin, one polygon side spanning bondDist.
// baseAngle rotates the whole polygon in addition to the structure's own
// rotation offset.
func (st Structure) IdealOffsets(bondDist, baseAngle float64) []Vec2 {
	if st.RingSize < 3 {
		return nil
	}
	n := float64(st.RingSize)
	radius := bondDist / (2 * math.Sin(math.Pi/n))
	step := 2 * math.Pi / n

	offsets := make([]Vec2, st.RingSize)
	for i := range offsets {
		angle := baseAngle + st.RotationOffset + float64(i)*step
		offsets[i] = Vec2{math.Cos(angle) * radius, math.Sin(angle) * radius}
	}
	return offsets
}

// Catalog is the read-only lookup service for elements, ring structures
// and named molecules. It is immutable after construction and shared by
// reference wherever element data is needed.
type Catalog struct {
	Name       string
	elements   map[ElementID]Element
	structures []Structure
	molecules  []NamedMolecule
}

// NewCatalog creates an empty catalog with the given name.
func NewCatalog(name string) *Catalog {
	return &Catalog{
		Name:     name,
		elements: make(map[ElementID]Element),
	}
}

// WithElements adds element definitions and returns the catalog for
// method chaining.
func (c *Catalog) WithElements(elements ...Element) *Catalog {
	for _, e := range elements {
		c.elements[e.ID] = e
	}
	return c
}

// WithStructures adds ring structure definitions and returns the catalog
// for method chaining.
func (c *Catalog) WithStructures(structures ...Structure) *Catalog {
	c.structures = append(c.structures, structures...)
	return c
}

// WithMolecules adds named molecule definitions and returns the catalog
// for method chaining.
func (c *Catalog) WithMolecules(molecules ...NamedMolecule) *Catalog {
	c.molecules = append(c.molecules, molecules...)
	return c
}

// Element retrieves an element definition by ID.
func (c *Catalog) Element(id ElementID) (Element, bool) {
	e, ok := c.elements[id]
	return e, ok
}

// Mass returns the atomic mass of an element, never below 1 so force
// integration cannot divide by a near-zero mass from a config file.
func (c *Catalog) Mass(id ElementID) float64 {
	e, ok := c.elements[id]
	if !ok || e.AtomicMass < 0.01 {
		return 1
	}
	return e.AtomicMass
}

// FindStructure returns the structure definition matching a ring size and
// element, if any.
func (c *Catalog) FindStructure(ringSize int, element ElementID) (Structure, bool) {
	for _, st := range c.structures {
		if st.RingSize == ringSize && st.Element == element {
			return st, true
		}
	}
	return Structure{}, false
}

// Structures returns all ring structure definitions.
func (c *Catalog) Structures() []Structure {
	return c.structures
}

// ElementIDs returns the IDs of all registered elements in sorted order.
func (c *Catalog) ElementIDs() []ElementID {
	ids := make([]ElementID, 0, len(c.elements))
	for id := range c.elements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
