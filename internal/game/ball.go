package game

// BallID uniquely identifies a ball for the lifetime of a server process.
// It is the join key on every component channel and the handshake payload.
// The server assigns IDs monotonically; zero is never a valid ID.
type BallID uint32

// Ball is a single simulated entity. Velocity is derived state: it is only
// ever written by the physics step, which eases it toward TargetVelocity.
// TargetVelocity is the input surface, written by local input for a
// controlled ball or by an inbound network update for a replica.
type Ball struct {
	ID             BallID `json:"id"`
	Position       Vec2   `json:"position"`
	Velocity       Vec2   `json:"velocity"`
	TargetVelocity Vec2   `json:"target_velocity"`
}

// NewBall returns a ball at the origin with no motion.
func NewBall(id BallID) *Ball {
	return &Ball{ID: id}
}

// Step advances the ball by dt seconds using the shared integrator.
func (b *Ball) Step(dt float64) {
	b.Velocity = AdvanceVelocity(b.Velocity, b.TargetVelocity, dt, VelocityRate)
	b.Position = AdvancePosition(b.Position, b.Velocity, dt, PositionScale)
}
