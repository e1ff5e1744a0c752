package geom

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestNormalize covers unit length and the zero vector
func TestNormalize(t *testing.T) {
	n := V(3, 4).Normalize()
	if !approx(n.X, 0.6) || !approx(n.Y, 0.8) {
		t.Errorf("Expected (0.6, 0.8), got %+v", n)
	}

	z := Vec2{}.Normalize()
	if !z.IsZero() {
		t.Errorf("Zero vector should stay zero, got %+v", z)
	}
}

// TestPerp verifies the counter-clockwise normal
func TestPerp(t *testing.T) {
	p := V(1, 0).Perp()
	if p != V(0, 1) {
		t.Errorf("Expected (0, 1), got %+v", p)
	}
}

// TestNormalizeAngle tests angle wrapping into [-π, π]
func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		name     string
		in       float64
		expected float64
	}{
		{"zero", 0, 0},
		{"just past pi", math.Pi + 0.5, -math.Pi + 0.5},
		{"just below -pi", -math.Pi - 0.5, math.Pi - 0.5},
		{"full turn", 2 * math.Pi, 0},
		{"three halves", 3 * math.Pi / 2, -math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAngle(tt.in)
			if !approx(got, tt.expected) {
				t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.expected)
			}
		})
	}
}

// TestCornersOrder checks corner ordering left-bottom, right-bottom, right-top, left-top
func TestCornersOrder(t *testing.T) {
	b := AABB{Min: V(0, 0), Max: V(2, 1)}
	c := b.Corners()
	want := [4]Vec2{V(0, 0), V(2, 0), V(2, 1), V(0, 1)}
	if c != want {
		t.Errorf("Expected %v, got %v", want, c)
	}
}

// TestIntersectsCircle covers overlap, touching and separation
func TestIntersectsCircle(t *testing.T) {
	box := AABB{Min: V(0, 0), Max: V(10, 10)}
	tests := []struct {
		name     string
		c        Circle
		expected bool
	}{
		{"inside", Circle{V(5, 5), 1}, true},
		{"overlapping edge", Circle{V(12, 5), 3}, true},
		{"touching edge", Circle{V(13, 5), 3}, true},
		{"near corner but outside", Circle{V(13, 13), 3}, false},
		{"far", Circle{V(50, 50), 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.IntersectsCircle(tt.c); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// TestTriangleIntersectsAABB exercises the separating-axis test
func TestTriangleIntersectsAABB(t *testing.T) {
	box := AABB{Min: V(0, 0), Max: V(10, 10)}
	tests := []struct {
		name     string
		a, b, c  Vec2
		expected bool
	}{
		{"fully inside", V(1, 1), V(2, 1), V(1, 2), true},
		{"encloses box", V(-100, -100), V(100, -100), V(0, 100), true},
		{"separated on x", V(20, 0), V(30, 0), V(25, 5), false},
		{"separated on diagonal edge", V(11, 20), V(20, 11), V(20, 20), false},
		{"crossing edge", V(-5, 5), V(5, 5), V(-5, 6), true},
		{"touching vertex", V(10, 10), V(20, 10), V(20, 20), true},
		{"segment through box", V(-5, 5), V(15, 5), V(15, 5), true},
		{"segment missing box", V(-5, 15), V(15, 15), V(15, 15), false},
		{"point inside", V(5, 5), V(5, 5), V(5, 5), true},
		{"point outside", V(-1, 5), V(-1, 5), V(-1, 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TriangleIntersectsAABB(tt.a, tt.b, tt.c, box); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// TestMerge verifies the union box
func TestMerge(t *testing.T) {
	a := AABB{Min: V(0, 0), Max: V(1, 1)}
	b := AABB{Min: V(2, -1), Max: V(3, 0.5)}
	m := a.Merge(b)
	if m.Min != V(0, -1) || m.Max != V(3, 1) {
		t.Errorf("Unexpected merged box %+v", m)
	}
}
