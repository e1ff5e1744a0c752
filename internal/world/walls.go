package world

import "radio-survival/internal/geom"

// MakeBoundingBoxes converts the tile grid into merged wall boxes.
//
// Every horizontal run of two or more wall tiles becomes one box, then every
// vertical run of two or more. A wall tile with no wall neighbour on any of
// its four sides gets a box of its own. The result covers every wall tile.
func MakeBoundingBoxes(tiles [][]byte, tileSize float64) []geom.AABB {
	h := len(tiles)
	if h == 0 {
		return nil
	}
	w := len(tiles[0])

	isWall := func(i, j int) bool {
		if i < 0 || i >= h || j < 0 || j >= len(tiles[i]) {
			return false
		}
		return tiles[i][j] == TileWall
	}

	// span builds the box covering tiles (i0..i1, j0..j1) inclusive.
	span := func(i0, j0, i1, j1 int) geom.AABB {
		return geom.AABB{
			Min: geom.V(tileSize*float64(j0), tileSize*float64(h-i1-1)),
			Max: geom.V(tileSize*float64(j1+1), tileSize*float64(h-i0)),
		}
	}

	var boxes []geom.AABB

	// Rows, left to right.
	for i := 0; i < h; i++ {
		for j := 0; j < w; {
			if !isWall(i, j) {
				j++
				continue
			}
			start := j
			for j < w && isWall(i, j) {
				j++
			}
			if j-start >= 2 {
				boxes = append(boxes, span(i, start, i, j-1))
			}
		}
	}

	// Columns, top to bottom.
	for j := 0; j < w; j++ {
		for i := 0; i < h; {
			if !isWall(i, j) {
				i++
				continue
			}
			start := i
			for i < h && isWall(i, j) {
				i++
			}
			if i-start >= 2 {
				boxes = append(boxes, span(start, j, i-1, j))
			}
		}
	}

	// Orphans.
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			if !isWall(i, j) {
				continue
			}
			if isWall(i-1, j) || isWall(i+1, j) || isWall(i, j-1) || isWall(i, j+1) {
				continue
			}
			boxes = append(boxes, span(i, j, i, j))
		}
	}

	return boxes
}
