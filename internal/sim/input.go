package sim

import (
	"math"

	"github.com/playrollio/backend/internal/game"
)

// DefaultDeadzone is the pointer dead radius in screen pixels.
const DefaultDeadzone = 30.0

// PointerTarget converts a pointer offset from screen center into a
// target velocity: direction is the normalized offset, magnitude ramps
// from 0 at the deadzone edge toward 1 far from center. Inside the
// deadzone the result is zero, never negative.
func PointerTarget(offset game.Vec2, deadzone float64) game.Vec2 {
	length := offset.Magnitude()
	if length == 0 {
		return game.Vec2{}
	}
	power := 1 - math.Min(1, deadzone/length)
	return offset.Normalize().Times(power)
}
