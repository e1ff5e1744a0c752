package world

import (
	"math"

	"radio-survival/internal/geom"
)

// WallEpsilon is added to edge overlaps so the circle fully clears the wall.
const WallEpsilon = 0.01

// maxVisibilityInset caps the width of the line-of-sight wedges.
const maxVisibilityInset = 16.0

// CollideWithWall tests the circle against the wall boxes and reports the
// first hit. norm points away from the wall; moving the center by norm*d
// separates the circle from that box.
func (m *Map) CollideWithWall(c geom.Circle) (hit bool, norm geom.Vec2, d float64) {
	for _, box := range m.walls {
		if !box.IntersectsCircle(c) {
			continue
		}
		norm, d = resolveBox(box, c)
		return true, norm, d
	}
	return false, geom.Vec2{}, 0
}

// resolveBox computes the response for a circle known to touch box.
func resolveBox(box geom.AABB, c geom.Circle) (geom.Vec2, float64) {
	center, r := c.Center, c.Radius

	// Corners first, in Corners order; the first one strictly inside the
	// circle wins.
	for _, corner := range box.Corners() {
		if v := center.Sub(corner); v.LenSq() < r*r {
			return v.Normalize(), r - v.Len()
		}
	}

	switch {
	case center.X <= box.Min.X:
		return geom.V(-1, 0), center.X - box.Min.X + r + WallEpsilon
	case box.Max.X <= center.X:
		return geom.V(1, 0), box.Max.X - center.X + r + WallEpsilon
	case center.Y <= box.Min.Y:
		return geom.V(0, -1), center.Y - box.Min.Y + r + WallEpsilon
	case box.Max.Y <= center.Y:
		return geom.V(0, 1), box.Max.Y - center.Y + r + WallEpsilon
	default:
		return deepestFace(box, c)
	}
}

// deepestFace pushes a circle whose center is inside the box out through the
// nearest face. Ties go left, right, bottom, top.
func deepestFace(box geom.AABB, c geom.Circle) (geom.Vec2, float64) {
	center, r := c.Center, c.Radius
	faces := [4]struct {
		norm geom.Vec2
		dist float64
	}{
		{geom.V(-1, 0), center.X - box.Min.X},
		{geom.V(1, 0), box.Max.X - center.X},
		{geom.V(0, -1), center.Y - box.Min.Y},
		{geom.V(0, 1), box.Max.Y - center.Y},
	}
	best := 0
	for i := 1; i < len(faces); i++ {
		if faces[i].dist < faces[best].dist {
			best = i
		}
	}
	return faces[best].norm, faces[best].dist + r + WallEpsilon
}

// Visible reports whether a circle of radius r at target can be seen from
// observer. Two thin wedges run from the observer to either side of the
// target circle; the target is hidden only when a single wall box blocks
// both wedges.
func (m *Map) Visible(observer, target geom.Vec2, r float64) bool {
	dir := observer.Sub(target).Normalize()
	n := dir.Perp()
	inset := math.Min(r, maxVisibilityInset)

	leftOuter := target.Add(n.Scale(r))
	leftInner := target.Add(n.Scale(r - inset))
	rightOuter := target.Sub(n.Scale(r))
	rightInner := target.Sub(n.Scale(r - inset))

	visible := true
	for _, box := range m.walls {
		if !visible {
			break
		}
		left := geom.TriangleIntersectsAABB(observer, leftOuter, leftInner, box)
		right := geom.TriangleIntersectsAABB(observer, rightOuter, rightInner, box)
		visible = !left || !right
	}
	return visible
}
