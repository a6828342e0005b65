package game

const (
	// VelocityRate is the exponential-smoothing rate shared by all balls.
	VelocityRate = 2.0

	// PositionScale converts velocity units to world units per second.
	PositionScale = 15.0
)
