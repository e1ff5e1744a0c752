// Package spatial provides the broad-phase index used by the object manager.
//
// The grid stores integer slot indices rather than pointers so it can be
// cleared and refilled every step without allocating.
package spatial

import (
	"math"

	"radio-survival/internal/geom"
)

// SpatialGrid buckets entities into fixed-size square cells covering the
// world. Entities outside the world are clamped into the border cells, and
// queries clamp the same way, so an entity is always found by a query that
// covers its position.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col])
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]uint32
	scratch     []uint32 // reused by QueryRadius
	count       int
}

// NewSpatialGrid creates a grid for a world of the given size. cellSize
// should be about the largest collision diameter.
func NewSpatialGrid(worldWidth, worldHeight, cellSize float64, maxEntities int) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 64
	}
	cols := int(math.Ceil(worldWidth / cellSize))
	rows := int(math.Ceil(worldHeight / cellSize))

	// Ensure at least 1x1 grid
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	avgPerCell := maxEntities / len(cells)
	if avgPerCell < 4 {
		avgPerCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, avgPerCell)
	}

	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear resets all cells, keeping their capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert adds an entity at p.
func (g *SpatialGrid) Insert(id uint32, p geom.Vec2) {
	idx := g.row(p.Y)*g.cols + g.col(p.X)
	g.cells[idx] = append(g.cells[idx], id)
	g.count++
}

func (g *SpatialGrid) col(x float64) int {
	return clampInt(int(math.Floor(x*g.invCellSize)), 0, g.cols-1)
}

func (g *SpatialGrid) row(y float64) int {
	return clampInt(int(math.Floor(y*g.invCellSize)), 0, g.rows-1)
}

// QueryRadius returns every entity whose cell overlaps the square of half
// side radius around c. Candidates may lie outside the radius; the caller
// runs the exact test.
//
// IMPORTANT: The returned slice is reused on subsequent calls.
func (g *SpatialGrid) QueryRadius(c geom.Vec2, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, maxCol := g.col(c.X-radius), g.col(c.X+radius)
	minRow, maxRow := g.row(c.Y-radius), g.row(c.Y+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}

	return g.scratch
}

// Stats returns grid statistics for debugging/profiling.
func (g *SpatialGrid) Stats() GridStats {
	var maxInCell, nonEmpty int
	for _, cell := range g.cells {
		n := len(cell)
		if n > maxInCell {
			maxInCell = n
		}
		if n > 0 {
			nonEmpty++
		}
	}

	avg := 0.0
	if nonEmpty > 0 {
		avg = float64(g.count) / float64(nonEmpty)
	}

	return GridStats{
		Cols:           g.cols,
		Rows:           g.rows,
		CellSize:       g.cellSize,
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		TotalEntities:  g.count,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avg,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	Cols           int     `json:"cols"`
	Rows           int     `json:"rows"`
	CellSize       float64 `json:"cellSize"`
	TotalCells     int     `json:"totalCells"`
	NonEmptyCells  int     `json:"nonEmptyCells"`
	TotalEntities  int     `json:"totalEntities"`
	MaxInCell      int     `json:"maxInCell"`
	AvgPerNonEmpty float64 `json:"avgPerNonEmpty"`
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
