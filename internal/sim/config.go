package sim

import (
	"encoding/json"
	"fmt"
	"math"
)

// JSON configuration schema for catalogs and zone layouts. A config file
// is the declarative form of a Catalog: elements, ring structures, named
// molecules and zones, validated as a whole before anything is built.

type ElementConfig struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	MaxBonds   int     `json:"max_bonds"`
	AtomicMass float64 `json:"atomic_mass"`
	// Optional explicit slot directions; when omitted, MaxBonds slots
	// are spread evenly in the bonding plane.
	Slots   []Vec3 `json:"slots,omitempty"`
	Seeking bool   `json:"seeking,omitempty"`
}

type StructureConfig struct {
	Name                string  `json:"name"`
	RingSize            int     `json:"ring_size"`
	Element             string  `json:"element"`
	Damping             float64 `json:"damping,omitempty"`
	GlobalDamping       float64 `json:"global_damping,omitempty"`
	FormationSpeed      float64 `json:"formation_speed,omitempty"`
	FormationDamping    float64 `json:"formation_damping,omitempty"`
	MaxFormationSpeed   float64 `json:"max_formation_speed,omitempty"`
	CompletionThreshold float64 `json:"completion_threshold,omitempty"`
	RotationOffset      float64 `json:"rotation_offset,omitempty"`
	InstantFormation    bool    `json:"instant_formation,omitempty"`
}

type MoleculeConfig struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
	Composition map[string]int `json:"composition"`
}

type ZoneConfig struct {
	Name            string  `json:"name"`
	MinX            float64 `json:"min_x"`
	MinY            float64 `json:"min_y"`
	MaxX            float64 `json:"max_x"`
	MaxY            float64 `json:"max_y"`
	RangeMultiplier float64 `json:"range_multiplier,omitempty"`
	AngleMultiplier float64 `json:"angle_multiplier,omitempty"`
	Drag            float64 `json:"drag,omitempty"`
}

type CatalogConfig struct {
	Name       string            `json:"name"`
	Elements   []ElementConfig   `json:"elements"`
	Structures []StructureConfig `json:"structures,omitempty"`
	Molecules  []MoleculeConfig  `json:"molecules,omitempty"`
	Zones      []ZoneConfig      `json:"zones,omitempty"`
}

// ParseCatalogConfig decodes a catalog config from JSON bytes.
func ParseCatalogConfig(data []byte) (CatalogConfig, error) {
	var cfg CatalogConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CatalogConfig{}, fmt.Errorf("failed to parse catalog config: %w", err)
	}
	return cfg, nil
}

// defaultSlots spreads n unit directions evenly in the bonding plane.
func defaultSlots(n int) []Vec3 {
	slots := make([]Vec3, n)
	step := 2 * math.Pi / float64(n)
	for i := range slots {
		angle := float64(i) * step
		slots[i] = Vec3{X: math.Cos(angle), Y: math.Sin(angle)}
	}
	return slots
}

// BuildCatalog validates a config and constructs the catalog and zone
// layout from it. Returns a ValidationError listing every issue when the
// config is invalid.
func BuildCatalog(cfg CatalogConfig) (*Catalog, ZoneSet, error) {
	if err := ValidateCatalogConfig(cfg); err != nil {
		return nil, nil, err
	}

	catalog := NewCatalog(cfg.Name)

	for _, ec := range cfg.Elements {
		slots := ec.Slots
		if len(slots) == 0 {
			slots = defaultSlots(ec.MaxBonds)
		} else {
			normalized := make([]Vec3, len(slots))
			for i, s := range slots {
				normalized[i] = s.Normalize()
			}
			slots = normalized
		}
		name := ec.Name
		if name == "" {
			name = ec.ID
		}
		catalog.WithElements(Element{
			ID:         ElementID(ec.ID),
			Name:       name,
			MaxBonds:   ec.MaxBonds,
			AtomicMass: ec.AtomicMass,
			Slots:      slots,
			Seeking:    ec.Seeking,
		})
	}

	for _, sc := range cfg.Structures {
		catalog.WithStructures(Structure{
			Name:                sc.Name,
			RingSize:            sc.RingSize,
			Element:             ElementID(sc.Element),
			Damping:             sc.Damping,
			GlobalDamping:       sc.GlobalDamping,
			FormationSpeed:      sc.FormationSpeed,
			FormationDamping:    sc.FormationDamping,
			MaxFormationSpeed:   sc.MaxFormationSpeed,
			CompletionThreshold: sc.CompletionThreshold,
			RotationOffset:      sc.RotationOffset,
			InstantFormation:    sc.InstantFormation,
		})
	}

	for _, mc := range cfg.Molecules {
		comp := make(Composition, len(mc.Composition))
		for el, count := range mc.Composition {
			comp[ElementID(el)] = count
		}
		catalog.WithMolecules(NamedMolecule{
			ID:          mc.ID,
			Name:        mc.Name,
			Formula:     comp.Formula(),
			Category:    mc.Category,
			Description: mc.Description,
			Composition: comp,
		})
	}

	zones := make(ZoneSet, 0, len(cfg.Zones))
	for _, zc := range cfg.Zones {
		rangeMult := zc.RangeMultiplier
		if rangeMult == 0 {
			rangeMult = 1
		}
		angleMult := zc.AngleMultiplier
		if angleMult == 0 {
			angleMult = 1
		}
		zones = append(zones, Zone{
			Name:            zc.Name,
			MinX:            zc.MinX,
			MinY:            zc.MinY,
			MaxX:            zc.MaxX,
			MaxY:            zc.MaxY,
			RangeMultiplier: rangeMult,
			AngleMultiplier: angleMult,
			Drag:            zc.Drag,
		})
	}

	return catalog, zones, nil
}
