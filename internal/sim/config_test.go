package sim

import (
	"math"
	"testing"
)

const sampleConfig = `{
	"name": "prebiotic",
	"elements": [
		{"id": "C", "name": "Carbon", "max_bonds": 4, "atomic_mass": 12, "seeking": true},
		{"id": "H", "max_bonds": 1, "atomic_mass": 1},
		{"id": "O", "max_bonds": 2, "atomic_mass": 16,
		 "slots": [{"x": 2, "y": 0, "z": 0}, {"x": -2, "y": 0, "z": 0}]}
	],
	"structures": [
		{"name": "hexagon", "ring_size": 6, "element": "C", "instant_formation": true}
	],
	"molecules": [
		{"id": "water", "name": "Water", "composition": {"H": 2, "O": 1}}
	],
	"zones": [
		{"name": "pool", "min_x": -100, "min_y": -100, "max_x": 100, "max_y": 100,
		 "range_multiplier": 1.5, "drag": 0.9}
	]
}`

func TestParseCatalogConfig(t *testing.T) {
	cfg, err := ParseCatalogConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseCatalogConfig failed: %v", err)
	}

	if cfg.Name != "prebiotic" {
		t.Errorf("Expected name 'prebiotic', got '%s'", cfg.Name)
	}
	if len(cfg.Elements) != 3 || len(cfg.Structures) != 1 || len(cfg.Molecules) != 1 || len(cfg.Zones) != 1 {
		t.Errorf("Unexpected section counts: %d/%d/%d/%d",
			len(cfg.Elements), len(cfg.Structures), len(cfg.Molecules), len(cfg.Zones))
	}
}

func TestParseCatalogConfig_InvalidJSON(t *testing.T) {
	if _, err := ParseCatalogConfig([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestBuildCatalog(t *testing.T) {
	cfg, err := ParseCatalogConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseCatalogConfig failed: %v", err)
	}

	catalog, zones, err := BuildCatalog(cfg)
	if err != nil {
		t.Fatalf("BuildCatalog failed: %v", err)
	}

	// Missing name defaults to the ID.
	h, ok := catalog.Element("H")
	if !ok || h.Name != "H" {
		t.Errorf("Expected element name defaulted to ID, got '%s'", h.Name)
	}

	// Omitted slots are spread evenly; four bonds means four unit
	// directions.
	c, _ := catalog.Element("C")
	if len(c.Slots) != 4 {
		t.Fatalf("Expected 4 default slots, got %d", len(c.Slots))
	}
	for i, s := range c.Slots {
		if math.Abs(s.Length()-1) > 1e-9 {
			t.Errorf("Default slot %d not unit length: %f", i, s.Length())
		}
	}

	// Explicit slots are normalized.
	o, _ := catalog.Element("O")
	if math.Abs(o.Slots[0].Length()-1) > 1e-9 {
		t.Errorf("Expected explicit slot normalized, got length %f", o.Slots[0].Length())
	}

	if _, ok := catalog.FindStructure(6, "C"); !ok {
		t.Error("Expected hexagon structure in the catalog")
	}
	if _, ok := catalog.FindMoleculeByComposition(Composition{"H": 2, "O": 1}); !ok {
		t.Error("Expected water in the catalog")
	}

	if len(zones) != 1 {
		t.Fatalf("Expected 1 zone, got %d", len(zones))
	}
	if zones[0].RangeMultiplier != 1.5 {
		t.Errorf("Expected range multiplier 1.5, got %f", zones[0].RangeMultiplier)
	}
	// Omitted angle multiplier defaults to neutral.
	if zones[0].AngleMultiplier != 1 {
		t.Errorf("Expected default angle multiplier 1, got %f", zones[0].AngleMultiplier)
	}
}

func TestBuildCatalog_RejectsInvalid(t *testing.T) {
	cfg := CatalogConfig{
		Name: "bad",
		Elements: []ElementConfig{
			{ID: "C", MaxBonds: 4},
		},
		Structures: []StructureConfig{
			{Name: "ring", RingSize: 6, Element: "Xx"},
		},
	}

	if _, _, err := BuildCatalog(cfg); err == nil {
		t.Error("Expected validation failure for unknown structure element")
	}
}
