package sim

import (
	"log"
	"sync"

	"github.com/playrollio/backend/internal/channel"
	"github.com/playrollio/backend/internal/game"
)

// Client mirrors the server's entity set into local replicas, exactly one
// of which (after the welcome handshake) is the locally controlled ball.
// Like the server loop, all entity state mutates inside Tick on a single
// goroutine; input and render reads go through the mutex.
type Client struct {
	mu        sync.Mutex
	transport Transport

	balls    map[game.BallID]*game.Ball
	localID  game.BallID // 0 until the welcome arrives
	deadzone float64

	// Change-detection snapshot for the local ball's outbound traffic.
	lastPosition game.Vec2
	lastTarget   game.Vec2
	hasLast      bool
}

// NewClient builds a client loop on top of a transport. deadzone is the
// pointer dead radius in screen pixels.
func NewClient(t Transport, deadzone float64) *Client {
	if deadzone <= 0 {
		deadzone = DefaultDeadzone
	}
	return &Client{
		transport: t,
		balls:     make(map[game.BallID]*game.Ball),
		deadzone:  deadzone,
	}
}

// Tick runs one client step: handshake and replica maintenance, local
// prediction, and outbound broadcast of the owned ball's changes.
func (c *Client) Tick(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handleEvents()
	c.drainWelcome()
	c.applyComponent(channel.Position, func(b *game.Ball, v game.Vec2) { b.Position = v })
	c.applyComponent(channel.Velocity, func(b *game.Ball, v game.Vec2) { b.Velocity = v })
	c.applyComponent(channel.TargetVelocity, func(b *game.Ball, v game.Vec2) { b.TargetVelocity = v })

	// Local prediction: integrate every replica so rendering stays
	// smooth between network updates.
	for _, b := range c.balls {
		b.Step(dt)
	}

	c.broadcastLocalChanges()
}

func (c *Client) handleEvents() {
	for _, ev := range c.transport.PollEvents() {
		switch ev.Kind {
		case Connected:
			log.Printf("[SIM] connected to server, sending hello")
			if err := c.transport.Send(ev.Peer, channel.ClientControl, channel.Hello{}); err != nil {
				log.Printf("[SIM] hello send failed: %v", err)
			}
		case Disconnected:
			log.Printf("[SIM] disconnected from server")
		}
	}
}

// drainWelcome processes the reliable ball assignment. The first welcome
// wins: a second one naming a different ball is a protocol violation and
// is logged and ignored, keeping the single-local-ball invariant.
func (c *Client) drainWelcome() {
	for _, in := range c.transport.Drain(channel.ServerControl) {
		w, err := channel.DecodePayload[channel.Welcome](in.Envelope)
		if err != nil {
			log.Printf("[SIM] bad welcome: %v", err)
			continue
		}
		if c.localID != 0 && c.localID != w.ID {
			log.Printf("[SIM] protocol violation: second welcome for ball %d, already controlling %d", w.ID, c.localID)
			continue
		}
		if _, ok := c.balls[w.ID]; !ok {
			c.balls[w.ID] = game.NewBall(w.ID)
		}
		c.localID = w.ID
		log.Printf("[SIM] controlling ball %d", w.ID)
	}
}

// applyComponent mirrors one unreliable channel into the replicas.
// Updates for the local ball are discarded: the client is authoritative
// for its own displayed intent, and a looped-back echo must not overwrite
// fresher local input. An unknown ID creates a new replica carrying just
// that component, the first-sighting path for remote balls.
func (c *Client) applyComponent(ch channel.ID, set func(*game.Ball, game.Vec2)) {
	for _, in := range c.transport.Drain(ch) {
		upd, err := channel.DecodePayload[channel.ComponentUpdate](in.Envelope)
		if err != nil {
			log.Printf("[SIM] bad %s update: %v", ch, err)
			continue
		}
		if upd.ID == c.localID {
			continue
		}
		b, ok := c.balls[upd.ID]
		if !ok {
			b = game.NewBall(upd.ID)
			c.balls[upd.ID] = b
		}
		set(b, upd.Value())
	}
}

// broadcastLocalChanges mirrors the server's change-detection broadcast,
// restricted to the one locally controlled ball.
func (c *Client) broadcastLocalChanges() {
	b, ok := c.balls[c.localID]
	if !ok {
		return
	}

	if !c.hasLast || !c.lastTarget.IsEqualTo(b.TargetVelocity) {
		c.transport.Broadcast(channel.TargetVelocity, channel.NewComponentUpdate(b.ID, b.TargetVelocity))
	}
	if !c.hasLast || !c.lastPosition.IsEqualTo(b.Position) {
		c.transport.Broadcast(channel.Position, channel.NewComponentUpdate(b.ID, b.Position))
	}
	c.lastTarget = b.TargetVelocity
	c.lastPosition = b.Position
	c.hasLast = true
}

// Pointer feeds the current pointer state into the local ball's target
// velocity. Remote replicas never receive local input. Release resets the
// target to zero.
func (c *Client) Pointer(offset game.Vec2, pressed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.balls[c.localID]
	if !ok {
		return
	}
	if pressed {
		b.TargetVelocity = PointerTarget(offset, c.deadzone)
	} else if !b.TargetVelocity.IsZero() {
		b.TargetVelocity = game.Vec2{}
	}
}

// LocalID returns the controlled ball's ID, zero before the welcome.
func (c *Client) LocalID() game.BallID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localID
}

// Balls returns a copy of all replicas for read-only consumers.
func (c *Client) Balls() []game.Ball {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]game.Ball, 0, len(c.balls))
	for _, b := range c.balls {
		out = append(out, *b)
	}
	return out
}
