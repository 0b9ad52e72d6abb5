package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Composition maps element IDs to atom counts. It is the externally
// visible identity of a molecule: two molecules with equal compositions
// are considered the same substance by the catalog-matching layer.
type Composition map[ElementID]int

// Formula renders the composition as a Hill-style formula string, e.g.
// {"C":6,"H":6} -> "C6H6". Carbon comes first, then hydrogen, then the
// rest alphabetically; a count of 1 is omitted.
func (c Composition) Formula() string {
	ids := make([]ElementID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return formulaRank(ids[i]) < formulaRank(ids[j])
	})

	var b strings.Builder
	for _, id := range ids {
		b.WriteString(string(id))
		if n := c[id]; n > 1 {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	return b.String()
}

func formulaRank(id ElementID) string {
	switch id {
	case "C":
		return "0"
	case "H":
		return "1"
	default:
		return "2" + string(id)
	}
}

// Equal reports whether two compositions contain exactly the same counts.
func (c Composition) Equal(o Composition) bool {
	if len(c) != len(o) {
		return false
	}
	for id, n := range c {
		if o[id] != n {
			return false
		}
	}
	return true
}

// NamedMolecule is a catalog entry identifying a known substance by its
// composition.
type NamedMolecule struct {
	ID          string
	Name        string
	Formula     string
	Category    string
	Description string
	Composition Composition
}

// FindMoleculeByComposition returns the named molecule matching the given
// composition exactly, if the catalog knows one.
func (c *Catalog) FindMoleculeByComposition(comp Composition) (NamedMolecule, bool) {
	for _, m := range c.molecules {
		if m.Composition.Equal(comp) {
			return m, true
		}
	}
	return NamedMolecule{}, false
}

// Molecules returns all named molecule definitions.
func (c *Catalog) Molecules() []NamedMolecule {
	return c.molecules
}
