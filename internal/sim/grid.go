package sim

import "math"

// SpatialGrid buckets entities by position into fixed-size cells so that
// "who is within radius r of this point" is answered in near-constant
// time. It knows nothing about chemistry; it stores entity indices only.
type SpatialGrid struct {
	cellSize float64
	cells    map[int64][]int
}

// NewSpatialGrid creates a grid with the given cell size.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[int64][]int),
	}
}

func (g *SpatialGrid) hash(cx, cy int) int64 {
	return int64(cx)<<32 | int64(uint32(cy))
}

// Rebuild clears the grid and re-buckets every entity by its current
// position. Called once per tick after integration.
func (g *SpatialGrid) Rebuild(transforms []Transform) {
	for k := range g.cells {
		delete(g.cells, k)
	}
	for i, tr := range transforms {
		cx := int(math.Floor(tr.X / g.cellSize))
		cy := int(math.Floor(tr.Y / g.cellSize))
		key := g.hash(cx, cy)
		g.cells[key] = append(g.cells[key], i)
	}
}

// Nearby returns every entity bucketed in a cell overlapping the square
// bounding box of side 2*radius around (x, y). The result is a superset
// of the true radius set and carries no ordering guarantee; callers that
// need exact distances must re-filter.
func (g *SpatialGrid) Nearby(x, y, radius float64) []int {
	minX := int(math.Floor((x - radius) / g.cellSize))
	maxX := int(math.Floor((x + radius) / g.cellSize))
	minY := int(math.Floor((y - radius) / g.cellSize))
	maxY := int(math.Floor((y + radius) / g.cellSize))

	var nearby []int
	for cx := minX; cx <= maxX; cx++ {
		for cy := minY; cy <= maxY; cy++ {
			nearby = append(nearby, g.cells[g.hash(cx, cy)]...)
		}
	}
	return nearby
}
