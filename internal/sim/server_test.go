package sim

import (
	"math/rand"
	"testing"

	"github.com/playrollio/backend/internal/channel"
	"github.com/playrollio/backend/internal/game"
)

const testDt = 1.0 / 30.0

func newTestServer(t *testing.T) (*Server, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport(t)
	s := NewServer(ft, ServerOptions{Rand: rand.New(rand.NewSource(1))})
	return s, ft
}

func mustTick(t *testing.T, s *Server) {
	t.Helper()
	if err := s.Tick(testDt); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func unowned(views []BallView) int {
	n := 0
	for _, v := range views {
		if v.Owner == 0 {
			n++
		}
	}
	return n
}

func TestSpawnFloorMaintained(t *testing.T) {
	s, _ := newTestServer(t)

	mustTick(t, s)

	views := s.WorldView()
	if got := unowned(views); got < 3 {
		t.Fatalf("unowned balls after tick: %d, want >= 3", got)
	}
	for i, v := range views {
		if v.ID != game.BallID(i+1) {
			t.Errorf("expected IDs 1..n in order, got %d at index %d", v.ID, i)
		}
	}
}

func TestSpawnFloorRefillsAfterAssignment(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)

	ft.queueEvent(Connected, 7)
	mustTick(t, s)

	if got := unowned(s.WorldView()); got < 3 {
		t.Errorf("unowned balls after assignment: %d, want >= 3", got)
	}
}

func TestIdentitiesStrictlyIncreasing(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)

	// Consume balls with connections, then release them again: freed
	// balls are reused for ownership but spawn IDs never go backward.
	ft.queueEvent(Connected, 1)
	ft.queueEvent(Connected, 2)
	mustTick(t, s)
	ft.queueEvent(Disconnected, 1)
	ft.queueEvent(Disconnected, 2)
	mustTick(t, s)

	views := s.WorldView()
	for i := 1; i < len(views); i++ {
		if views[i].ID <= views[i-1].ID {
			t.Fatalf("IDs not strictly increasing: %d after %d", views[i].ID, views[i-1].ID)
		}
	}
	// Two assignments spawned two replacements beyond the initial three.
	if last := views[len(views)-1].ID; last != 5 {
		t.Errorf("highest ID: %d, want 5", last)
	}
}

func TestConnectAssignsBallAndWelcomes(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)

	ft.queueEvent(Connected, 9)
	mustTick(t, s)

	if got := ft.welcomesTo(9); len(got) != 1 || got[0] != 1 {
		t.Fatalf("welcomes to peer 9: %v, want [1]", got)
	}
	views := s.WorldView()
	if views[0].Owner != 9 {
		t.Errorf("ball 1 owner: %d, want 9", views[0].Owner)
	}
}

func TestConnectWithNoBallsIsFatal(t *testing.T) {
	s, ft := newTestServer(t)

	// First-ever tick: the connection event is handled before the spawn
	// floor has ever run, so there is nothing to hand out.
	ft.queueEvent(Connected, 1)
	if err := s.Tick(testDt); err == nil {
		t.Fatal("expected capacity-exhaustion error, got nil")
	}
}

func TestDisconnectReleasesBall(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)

	ft.queueEvent(Connected, 4)
	mustTick(t, s)
	ft.queueEvent(Disconnected, 4)
	mustTick(t, s)

	for _, v := range s.WorldView() {
		if v.Owner != 0 {
			t.Errorf("ball %d still owned by %d after disconnect", v.ID, v.Owner)
		}
	}
}

func TestOwnedBallKeepsClientTarget(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)
	ft.queueEvent(Connected, 2)
	mustTick(t, s)

	want := game.NewVec2(0.5, 0)
	ft.queueInbound(2, channel.TargetVelocity, channel.NewComponentUpdate(1, want))
	mustTick(t, s)

	views := s.WorldView()
	if !views[0].TargetVelocity.IsEqualTo(want) {
		t.Errorf("owned ball target: %+v, want %+v (wander must not touch owned balls)", views[0].TargetVelocity, want)
	}
}

func TestUnownedBallsWander(t *testing.T) {
	s, _ := newTestServer(t)
	mustTick(t, s)

	for _, v := range s.WorldView() {
		tv := v.TargetVelocity
		if tv.IsZero() {
			t.Errorf("ball %d has no wander target", v.ID)
		}
		if tv.X < -1 || tv.X > 1 || tv.Y < -1 || tv.Y > 1 {
			t.Errorf("ball %d wander target out of range: %+v", v.ID, tv)
		}
	}
}

func TestInboundPositionAppliedVerbatim(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)
	ft.queueEvent(Connected, 2)
	mustTick(t, s)

	// Applied before physics, so one integration step runs on top of
	// the reported position. Zero the motion state to observe it.
	ft.queueInbound(2, channel.TargetVelocity, channel.NewComponentUpdate(1, game.Vec2{}))
	ft.queueInbound(2, channel.Position, channel.NewComponentUpdate(1, game.NewVec2(40, -40)))
	mustTick(t, s)

	pos := s.WorldView()[0].Position
	if pos.Minus(game.NewVec2(40, -40)).Magnitude() > 1 {
		t.Errorf("reported position not applied: %+v", pos)
	}
}

func TestUnknownIdentityIgnored(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)
	before := len(s.WorldView())

	ft.queueInbound(3, channel.TargetVelocity, channel.NewComponentUpdate(99, game.NewVec2(1, 1)))
	mustTick(t, s)

	views := s.WorldView()
	if len(views) != before {
		t.Errorf("unknown-identity update changed ball count: %d -> %d", before, len(views))
	}
	for _, v := range views {
		if v.ID == 99 {
			t.Error("ball 99 created from unknown-identity update")
		}
	}
}

func TestChangeDetectionSuppressesRepeatBroadcast(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)
	ft.queueEvent(Connected, 2)
	mustTick(t, s)

	// First differing write broadcasts once.
	ft.clearOutbound()
	ft.queueInbound(2, channel.TargetVelocity, channel.NewComponentUpdate(1, game.NewVec2(0.5, 0)))
	mustTick(t, s)
	if got := len(ft.broadcastsFor(channel.TargetVelocity, 1)); got != 1 {
		t.Fatalf("broadcasts after first write: %d, want 1", got)
	}

	// Identical consecutive writes stay quiet.
	for i := 0; i < 3; i++ {
		ft.clearOutbound()
		ft.queueInbound(2, channel.TargetVelocity, channel.NewComponentUpdate(1, game.NewVec2(0.5, 0)))
		mustTick(t, s)
		if got := len(ft.broadcastsFor(channel.TargetVelocity, 1)); got != 0 {
			t.Fatalf("broadcasts after repeat write %d: %d, want 0", i, got)
		}
	}
}

func TestVelocityChannelDrainedButReserved(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)
	ft.queueEvent(Connected, 2)
	mustTick(t, s)

	ft.queueInbound(2, channel.Velocity, channel.NewComponentUpdate(1, game.NewVec2(9, 9)))
	mustTick(t, s)

	if v := s.WorldView()[0].Velocity; v.Magnitude() > 1 {
		t.Errorf("reserved velocity channel mutated state: %+v", v)
	}
	if remaining := ft.Drain(channel.Velocity); len(remaining) != 0 {
		t.Errorf("velocity queue not drained: %d left", len(remaining))
	}
}

func TestBroadcastsGoToAllPeers(t *testing.T) {
	s, ft := newTestServer(t)
	mustTick(t, s)

	ft.clearOutbound()
	mustTick(t, s)

	// Wander retargets every unowned ball each tick, so each must
	// produce exactly one target-velocity broadcast per tick.
	for _, v := range s.WorldView() {
		if got := len(ft.broadcastsFor(channel.TargetVelocity, v.ID)); got != 1 {
			t.Errorf("ball %d: %d target broadcasts in one tick, want 1", v.ID, got)
		}
	}
}
