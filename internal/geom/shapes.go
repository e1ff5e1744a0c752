package geom

import "math"

// AABB is an axis-aligned box given by its minimum (left, bottom) and
// maximum (right, top) corners.
type AABB struct {
	Min Vec2 `json:"min" msgpack:"min"`
	Max Vec2 `json:"max" msgpack:"max"`
}

// BoxFromCenter builds a box from its center and half-size.
func BoxFromCenter(center, extents Vec2) AABB {
	return AABB{Min: center.Sub(extents), Max: center.Add(extents)}
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec2 {
	return Vec2{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2}
}

// Extents returns the half-size of the box.
func (b AABB) Extents() Vec2 {
	return Vec2{(b.Max.X - b.Min.X) / 2, (b.Max.Y - b.Min.Y) / 2}
}

// Corners returns the four corners in fixed order:
// left-bottom, right-bottom, right-top, left-top.
func (b AABB) Corners() [4]Vec2 {
	return [4]Vec2{
		{b.Min.X, b.Min.Y},
		{b.Max.X, b.Min.Y},
		{b.Max.X, b.Max.Y},
		{b.Min.X, b.Max.Y},
	}
}

// Merge returns the smallest box containing both b and o.
func (b AABB) Merge(o AABB) AABB {
	return AABB{
		Min: Vec2{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y)},
		Max: Vec2{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y)},
	}
}

// ContainsPoint reports whether p lies inside or on the box.
func (b AABB) ContainsPoint(p Vec2) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// ClosestPoint returns the point of the box nearest to p.
func (b AABB) ClosestPoint(p Vec2) Vec2 {
	return Vec2{clamp(p.X, b.Min.X, b.Max.X), clamp(p.Y, b.Min.Y, b.Max.Y)}
}

// IntersectsCircle reports whether the circle overlaps or touches the box.
func (b AABB) IntersectsCircle(c Circle) bool {
	return b.ClosestPoint(c.Center).Sub(c.Center).LenSq() <= c.Radius*c.Radius
}

// Circle is a disc with a center and radius.
type Circle struct {
	Center Vec2
	Radius float64
}

// ContainsPoint reports whether p lies inside or on the circle.
func (c Circle) ContainsPoint(p Vec2) bool {
	return p.Sub(c.Center).LenSq() <= c.Radius*c.Radius
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
