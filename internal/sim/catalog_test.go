package sim

import (
	"math"
	"testing"
)

func TestCatalog_Element(t *testing.T) {
	c := testCatalog()

	e, ok := c.Element("C")
	if !ok {
		t.Fatal("Expected carbon in the catalog")
	}
	if e.MaxBonds != 4 || e.AtomicMass != 12 {
		t.Errorf("Unexpected carbon definition: %+v", e)
	}
	if len(e.Slots) != e.MaxBonds {
		t.Errorf("Expected %d slots, got %d", e.MaxBonds, len(e.Slots))
	}

	if _, ok := c.Element("Xx"); ok {
		t.Error("Expected unknown element to be absent")
	}
}

func TestCatalog_Mass(t *testing.T) {
	c := testCatalog()

	if c.Mass("O") != 16 {
		t.Errorf("Expected mass 16, got %f", c.Mass("O"))
	}
	// Unknown or degenerate masses fall back to 1 to keep force
	// integration finite.
	if c.Mass("Xx") != 1 {
		t.Errorf("Expected fallback mass 1, got %f", c.Mass("Xx"))
	}

	c.WithElements(Element{ID: "Z", MaxBonds: 1, AtomicMass: 0})
	if c.Mass("Z") != 1 {
		t.Errorf("Expected zero mass promoted to 1, got %f", c.Mass("Z"))
	}
}

func TestCatalog_FindStructure(t *testing.T) {
	c := testCatalog().WithStructures(
		Structure{Name: "square", RingSize: 4, Element: "C"},
		Structure{Name: "hexagon", RingSize: 6, Element: "C"},
	)

	st, ok := c.FindStructure(6, "C")
	if !ok || st.Name != "hexagon" {
		t.Errorf("Expected hexagon, got %+v (ok=%v)", st, ok)
	}
	if _, ok := c.FindStructure(5, "C"); ok {
		t.Error("Expected no structure for ring size 5")
	}
	if _, ok := c.FindStructure(4, "O"); ok {
		t.Error("Expected no structure for oxygen")
	}
}

func TestCatalog_ElementIDs_Sorted(t *testing.T) {
	ids := testCatalog().ElementIDs()
	want := []ElementID{"C", "H", "O"}

	if len(ids) != len(want) {
		t.Fatalf("Expected %d element IDs, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, ids)
			break
		}
	}
}

func TestStructure_IdealOffsets(t *testing.T) {
	st := Structure{Name: "hexagon", RingSize: 6, Element: "C"}
	offsets := st.IdealOffsets(42, 0)

	if len(offsets) != 6 {
		t.Fatalf("Expected 6 offsets, got %d", len(offsets))
	}

	// Circumradius of a regular hexagon equals the side length.
	wantRadius := 42.0 / (2 * math.Sin(math.Pi/6))
	for i, o := range offsets {
		r := math.Hypot(o.X, o.Y)
		if math.Abs(r-wantRadius) > 1e-9 {
			t.Errorf("Offset %d at radius %f, want %f", i, r, wantRadius)
		}
	}

	// Adjacent vertices sit one bond length apart.
	side := math.Hypot(offsets[1].X-offsets[0].X, offsets[1].Y-offsets[0].Y)
	if math.Abs(side-42) > 1e-9 {
		t.Errorf("Expected side 42, got %f", side)
	}
}

func TestStructure_IdealOffsets_DegenerateRing(t *testing.T) {
	st := Structure{RingSize: 2}
	if st.IdealOffsets(42, 0) != nil {
		t.Error("Expected nil offsets below ring size 3")
	}
}

func TestStructure_IdealOffsets_Rotation(t *testing.T) {
	st := Structure{RingSize: 4, RotationOffset: math.Pi / 4}
	offsets := st.IdealOffsets(42, 0)

	wantRadius := 42.0 / (2 * math.Sin(math.Pi/4))
	wantX := wantRadius * math.Cos(math.Pi/4)
	if math.Abs(offsets[0].X-wantX) > 1e-9 {
		t.Errorf("Expected rotation offset applied, got first vertex X %f", offsets[0].X)
	}
}
