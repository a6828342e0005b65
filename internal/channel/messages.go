package channel

import "github.com/playrollio/backend/internal/game"

// Hello is the client's opening announcement on ClientControl. It has no
// payload beyond the channel tag.
type Hello struct{}

// Welcome tells a freshly connected client which ball it controls.
type Welcome struct {
	ID game.BallID `json:"id"`
}

// ComponentUpdate is the shared wire shape of the three unreliable
// component channels: a ball ID plus a 2D value. The channel tag decides
// which component the value belongs to.
type ComponentUpdate struct {
	ID game.BallID `json:"id"`
	X  float64     `json:"x"`
	Y  float64     `json:"y"`
}

// NewComponentUpdate tags a component value with its ball ID.
func NewComponentUpdate(id game.BallID, v game.Vec2) ComponentUpdate {
	return ComponentUpdate{ID: id, X: v.X, Y: v.Y}
}

// Value returns the update's vector payload.
func (u ComponentUpdate) Value() game.Vec2 {
	return game.NewVec2(u.X, u.Y)
}
