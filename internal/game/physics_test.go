package game

import (
	"math"
	"testing"
)

func TestAdvanceVelocityMovesTowardTarget(t *testing.T) {
	v := NewVec2(0, 0)
	target := NewVec2(1, -1)
	dt := 1.0 / 30.0

	got := AdvanceVelocity(v, target, dt, VelocityRate)

	// Each axis must land strictly between the old velocity and the target.
	if got.X <= v.X || got.X >= target.X {
		t.Errorf("X not between start and target: got %.4f", got.X)
	}
	if got.Y >= v.Y || got.Y <= target.Y {
		t.Errorf("Y not between start and target: got %.4f", got.Y)
	}
}

func TestAdvanceVelocityIsContraction(t *testing.T) {
	cases := []struct {
		name   string
		v, tgt Vec2
	}{
		{"at rest toward positive", NewVec2(0, 0), NewVec2(0.5, 0.25)},
		{"moving toward zero", NewVec2(0.9, -0.4), NewVec2(0, 0)},
		{"reversal", NewVec2(-1, 1), NewVec2(1, -1)},
	}

	dt := 1.0 / 60.0
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			before := c.v.Minus(c.tgt).Magnitude()
			after := AdvanceVelocity(c.v, c.tgt, dt, VelocityRate).Minus(c.tgt).Magnitude()
			if after >= before {
				t.Errorf("distance to target grew: before=%.6f after=%.6f", before, after)
			}
		})
	}
}

func TestAdvanceVelocityReachesTargetInLimit(t *testing.T) {
	// dt*rate == 1 lands exactly on the target.
	v := NewVec2(-0.3, 0.8)
	target := NewVec2(0.6, 0.1)
	got := AdvanceVelocity(v, target, 0.5, VelocityRate)
	if !got.IsEqualTo(target) {
		t.Errorf("expected exactly target %+v, got %+v", target, got)
	}
}

func TestAdvancePositionEulerStep(t *testing.T) {
	p := NewVec2(2, 3)
	v := NewVec2(0.5, -0.5)
	dt := 1.0 / 30.0

	got := AdvancePosition(p, v, dt, PositionScale)
	want := NewVec2(2+0.5*dt*PositionScale, 3-0.5*dt*PositionScale)
	if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 {
		t.Errorf("got %+v want %+v", got, want)
	}
}

func TestAdvancePositionNoMotion(t *testing.T) {
	p := NewVec2(1, 1)

	if got := AdvancePosition(p, NewVec2(0, 0), 1.0/30.0, PositionScale); !got.IsEqualTo(p) {
		t.Errorf("zero velocity moved position: %+v", got)
	}
	if got := AdvancePosition(p, NewVec2(1, 1), 0, PositionScale); !got.IsEqualTo(p) {
		t.Errorf("dt=0 moved position: %+v", got)
	}
}

func TestBallStepIntegrates(t *testing.T) {
	b := NewBall(1)
	b.TargetVelocity = NewVec2(1, 0)

	b.Step(1.0 / 30.0)

	if b.Velocity.X <= 0 || b.Velocity.Y != 0 {
		t.Errorf("unexpected velocity after step: %+v", b.Velocity)
	}
	if b.Position.X <= 0 || b.Position.Y != 0 {
		t.Errorf("unexpected position after step: %+v", b.Position)
	}
}
