package game

import "math"

// Vec2 is a 2D vector in world coordinates.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec2) Normalize() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return v.Times(1.0 / m)
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// IsEqualTo is exact value equality, used by change detection so that a
// settled component stops generating broadcast traffic.
func (v Vec2) IsEqualTo(o Vec2) bool {
	return v.X == o.X && v.Y == o.Y
}
