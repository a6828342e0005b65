package game

// AdvanceVelocity eases velocity toward target by exponential decay:
// v' = v*(1 - dt*rate) + target*(dt*rate). Movement stays inertial instead
// of snapping to the input.
func AdvanceVelocity(velocity, target Vec2, dt, rate float64) Vec2 {
	k := dt * rate
	return velocity.Times(1 - k).Plus(target.Times(k))
}

// AdvancePosition is one Euler step: p' = p + v*dt*scale. The scale
// constant converts velocity units to world units per second.
func AdvancePosition(position, velocity Vec2, dt, scale float64) Vec2 {
	return position.Plus(velocity.Times(dt * scale))
}
