package geom

// TriangleIntersectsAABB reports whether triangle (a, b, c) overlaps the box.
// Touching counts as overlapping. Degenerate triangles (segments or points)
// are handled: zero-length edges contribute no axis.
func TriangleIntersectsAABB(a, b, c Vec2, box AABB) bool {
	tri := [3]Vec2{a, b, c}

	// Box axes.
	if separated(tri, box, Vec2{1, 0}) || separated(tri, box, Vec2{0, 1}) {
		return false
	}

	for i := 0; i < 3; i++ {
		edge := tri[(i+1)%3].Sub(tri[i])
		if edge.IsZero() {
			continue
		}
		if separated(tri, box, edge.Perp()) {
			return false
		}
	}
	return true
}

// separated reports whether axis is a separating axis for tri and box.
func separated(tri [3]Vec2, box AABB, axis Vec2) bool {
	tMin, tMax := tri[0].Dot(axis), tri[0].Dot(axis)
	for _, p := range tri[1:] {
		d := p.Dot(axis)
		if d < tMin {
			tMin = d
		}
		if d > tMax {
			tMax = d
		}
	}

	corners := box.Corners()
	bMin, bMax := corners[0].Dot(axis), corners[0].Dot(axis)
	for _, p := range corners[1:] {
		d := p.Dot(axis)
		if d < bMin {
			bMin = d
		}
		if d > bMax {
			bMax = d
		}
	}

	return tMax < bMin || bMax < tMin
}
