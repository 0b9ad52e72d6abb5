package sim

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid catalog: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "catalog validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// ValidateCatalogConfig performs comprehensive validation of a CatalogConfig
func ValidateCatalogConfig(cfg CatalogConfig) error {
	err := &ValidationError{}

	// Validate catalog name
	if cfg.Name == "" {
		err.Add("catalog name is required")
	}

	// Build a map of element IDs for quick lookup
	elementMap := make(map[string]bool)

	// Validate elements
	for i, ec := range cfg.Elements {
		prefix := "element"
		if ec.ID != "" {
			prefix = "element '" + ec.ID + "'"
		} else {
			prefix = "element at index " + fmt.Sprintf("%d", i)
			err.Add(prefix + ": element ID is required")
		}

		if ec.ID != "" {
			if elementMap[ec.ID] {
				err.Add("duplicate element ID: " + ec.ID)
			} else {
				elementMap[ec.ID] = true
			}
		}

		if ec.MaxBonds < 0 || ec.MaxBonds > 32 {
			err.Add(prefix + ": max_bonds must be between 0 and 32")
		}
		if ec.AtomicMass < 0 {
			err.Add(prefix + ": atomic_mass cannot be negative")
		}
		if len(ec.Slots) > 0 {
			if len(ec.Slots) != ec.MaxBonds {
				err.Add(fmt.Sprintf("%s: %d slots declared but max_bonds is %d", prefix, len(ec.Slots), ec.MaxBonds))
			}
			for j, s := range ec.Slots {
				if s.Length() == 0 {
					err.Add(fmt.Sprintf("%s: slot at index %d is the zero vector", prefix, j))
				}
			}
		}
	}

	// Validate structures
	for i, sc := range cfg.Structures {
		prefix := "structure"
		if sc.Name != "" {
			prefix = "structure '" + sc.Name + "'"
		} else {
			prefix = "structure at index " + fmt.Sprintf("%d", i)
			err.Add(prefix + ": structure name is required")
		}

		if sc.RingSize < 3 {
			err.Add(prefix + ": ring_size must be at least 3")
		}
		if sc.Element == "" {
			err.Add(prefix + ": element is required")
		} else if !elementMap[sc.Element] {
			err.Add(prefix + ": element '" + sc.Element + "' does not exist")
		}
		if sc.CompletionThreshold < 0 {
			err.Add(prefix + ": completion_threshold cannot be negative")
		}
		if sc.FormationDamping < 0 || sc.FormationDamping > 1 {
			err.Add(prefix + ": formation_damping must be between 0 and 1")
		}
	}

	// Build a map of molecule IDs for uniqueness check
	moleculeIDs := make(map[string]bool)

	// Validate molecules
	for i, mc := range cfg.Molecules {
		prefix := "molecule"
		if mc.ID != "" {
			prefix = "molecule '" + mc.ID + "'"
		} else {
			prefix = "molecule at index " + fmt.Sprintf("%d", i)
			err.Add(prefix + ": molecule ID is required")
		}

		if mc.ID != "" {
			if moleculeIDs[mc.ID] {
				err.Add("duplicate molecule ID: " + mc.ID)
			} else {
				moleculeIDs[mc.ID] = true
			}
		}
		if mc.Name == "" {
			err.Add(prefix + ": molecule name is required")
		}
		if len(mc.Composition) == 0 {
			err.Add(prefix + ": composition is required")
		}
		for el, count := range mc.Composition {
			if !elementMap[el] {
				err.Add(prefix + ": composition element '" + el + "' does not exist")
			}
			if count <= 0 {
				err.Add(prefix + ": composition count for '" + el + "' must be positive")
			}
		}
	}

	// Validate zones
	zoneNames := make(map[string]bool)
	for i, zc := range cfg.Zones {
		prefix := "zone"
		if zc.Name != "" {
			prefix = "zone '" + zc.Name + "'"
		} else {
			prefix = "zone at index " + fmt.Sprintf("%d", i)
			err.Add(prefix + ": zone name is required")
		}

		if zc.Name != "" {
			if zoneNames[zc.Name] {
				err.Add("duplicate zone name: " + zc.Name)
			} else {
				zoneNames[zc.Name] = true
			}
		}
		if zc.MinX >= zc.MaxX || zc.MinY >= zc.MaxY {
			err.Add(prefix + ": zone bounds are empty")
		}
		if zc.RangeMultiplier < 0 {
			err.Add(prefix + ": range_multiplier cannot be negative")
		}
		if zc.AngleMultiplier < 0 {
			err.Add(prefix + ": angle_multiplier cannot be negative")
		}
		if zc.Drag < 0 || zc.Drag > 1 {
			err.Add(prefix + ": drag must be between 0 and 1")
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}
