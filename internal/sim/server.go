package sim

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/playrollio/backend/internal/channel"
	"github.com/playrollio/backend/internal/game"
)

// ServerOptions tune the authoritative loop. Zero values fall back to
// defaults; Redis and DB are optional side channels and may be nil.
type ServerOptions struct {
	SpawnFloor    int        // minimum count of unowned balls (default 3)
	Rand          *rand.Rand // wander/spawn randomness (default time-seeded)
	Redis         *redis.Client
	DB            *sqlx.DB
	SnapshotEvery int // ticks between Redis snapshots (default 30)
}

// Server is the authoritative synchronization loop. It owns the only
// mapping from ball ID to ball; all entity state mutates inside Tick,
// which runs on a single goroutine at a fixed cadence.
type Server struct {
	mu        sync.Mutex
	transport Transport

	balls  map[game.BallID]*game.Ball
	owners map[game.BallID]PeerID // ball -> controlling peer
	peers  map[PeerID]game.BallID // reverse index

	// Previous-tick component values for change detection. A ball with
	// no entry yet counts as changed, so fresh spawns are announced.
	lastPosition map[game.BallID]game.Vec2
	lastTarget   map[game.BallID]game.Vec2

	highestID  game.BallID
	spawnFloor int
	rng        *rand.Rand
	tick       uint64

	rdb           *redis.Client
	db            *sqlx.DB
	snapshotEvery uint64
}

// NewServer builds a server loop on top of a transport.
func NewServer(t Transport, opts ServerOptions) *Server {
	if opts.SpawnFloor <= 0 {
		opts.SpawnFloor = 3
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	if opts.SnapshotEvery <= 0 {
		opts.SnapshotEvery = 30
	}
	return &Server{
		transport:     t,
		balls:         make(map[game.BallID]*game.Ball),
		owners:        make(map[game.BallID]PeerID),
		peers:         make(map[PeerID]game.BallID),
		lastPosition:  make(map[game.BallID]game.Vec2),
		lastTarget:    make(map[game.BallID]game.Vec2),
		spawnFloor:    opts.SpawnFloor,
		rng:           opts.Rand,
		rdb:           opts.Redis,
		db:            opts.DB,
		snapshotEvery: uint64(opts.SnapshotEvery),
	}
}

// Tick runs one authoritative simulation step. The returned error is
// fatal: it means a new connection arrived with no unowned ball to hand
// out, which the minimal design does not recover from.
func (s *Server) Tick(dt float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++

	if err := s.handleEvents(); err != nil {
		return err
	}
	s.maintainSpawnFloor()
	s.wanderUnowned()
	s.drainInbound()

	for _, b := range s.balls {
		b.Step(dt)
	}

	s.broadcastChanges()
	s.maybeSnapshot()
	return nil
}

func (s *Server) handleEvents() error {
	for _, ev := range s.transport.PollEvents() {
		switch ev.Kind {
		case Connected:
			log.Printf("[SIM] peer %d connected", ev.Peer)
			id, ok := s.firstUnownedBall()
			if !ok {
				return fmt.Errorf("no unowned ball available for peer %d", ev.Peer)
			}
			s.owners[id] = ev.Peer
			s.peers[ev.Peer] = id
			if err := s.transport.Send(ev.Peer, channel.ServerControl, channel.Welcome{ID: id}); err != nil {
				if errors.Is(err, ErrUnknownPeer) {
					// Handles only come from live Connected events, so a
					// missing record here is a bookkeeping bug.
					panic(fmt.Sprintf("welcome for non-existing peer %d: %v", ev.Peer, err))
				}
				log.Printf("[SIM] welcome send to peer %d failed: %v", ev.Peer, err)
			}
			log.Printf("[SIM] ball %d now controlled by peer %d", id, ev.Peer)
			s.recordConnect(ev.Peer, id)

		case Disconnected:
			if id, ok := s.peers[ev.Peer]; ok {
				delete(s.owners, id)
				delete(s.peers, ev.Peer)
				log.Printf("[SIM] peer %d disconnected, ball %d released", ev.Peer, id)
			} else {
				log.Printf("[SIM] peer %d disconnected", ev.Peer)
			}
			s.recordDisconnect(ev.Peer)
		}
	}
	return nil
}

// firstUnownedBall returns the lowest-ID ball with no controlling peer.
func (s *Server) firstUnownedBall() (game.BallID, bool) {
	var best game.BallID
	found := false
	for id := range s.balls {
		if _, owned := s.owners[id]; owned {
			continue
		}
		if !found || id < best {
			best = id
			found = true
		}
	}
	return best, found
}

func (s *Server) unownedCount() int {
	n := 0
	for id := range s.balls {
		if _, owned := s.owners[id]; !owned {
			n++
		}
	}
	return n
}

// maintainSpawnFloor tops the pool of unowned balls back up to the floor.
// IDs are never reused: each spawn takes the next value above the highest
// ever assigned.
func (s *Server) maintainSpawnFloor() {
	for s.unownedCount() < s.spawnFloor {
		s.highestID++
		id := s.highestID
		b := game.NewBall(id)
		b.Position = game.NewVec2(s.rng.Float64()*10-5, s.rng.Float64()*10-5)
		s.balls[id] = b
		log.Printf("[SIM] spawned ball %d at (%.2f, %.2f)", id, b.Position.X, b.Position.Y)
	}
}

// wanderUnowned feeds every unowned ball a fresh pseudo-random target
// each tick, one uniform draw in [-1,1] per axis.
func (s *Server) wanderUnowned() {
	for id, b := range s.balls {
		if _, owned := s.owners[id]; owned {
			continue
		}
		b.TargetVelocity = game.NewVec2(s.rng.Float64()*2-1, s.rng.Float64()*2-1)
	}
}

// drainInbound consumes every queued message. Component updates are
// applied verbatim to the named ball; unknown IDs are ignored because
// unreliable delivery can race entity creation. The sender is not checked
// against the ball's owner, a known weakness of the current protocol.
func (s *Server) drainInbound() {
	for _, in := range s.transport.Drain(channel.ClientControl) {
		if _, err := channel.DecodePayload[channel.Hello](in.Envelope); err != nil {
			log.Printf("[SIM] bad hello from peer %d: %v", in.Peer, err)
			continue
		}
		log.Printf("[SIM] hello from peer %d", in.Peer)
	}

	s.applyComponent(channel.Position, func(b *game.Ball, v game.Vec2) { b.Position = v })
	s.applyComponent(channel.TargetVelocity, func(b *game.Ball, v game.Vec2) { b.TargetVelocity = v })

	// Velocity is registered but reserved: drain so the queue stays
	// empty, apply nothing.
	s.transport.Drain(channel.Velocity)
}

func (s *Server) applyComponent(ch channel.ID, set func(*game.Ball, game.Vec2)) {
	for _, in := range s.transport.Drain(ch) {
		upd, err := channel.DecodePayload[channel.ComponentUpdate](in.Envelope)
		if err != nil {
			log.Printf("[SIM] bad %s update from peer %d: %v", ch, in.Peer, err)
			continue
		}
		if b, ok := s.balls[upd.ID]; ok {
			set(b, upd.Value())
		}
	}
}

// broadcastChanges sends every Position and TargetVelocity whose value
// differs from the previous tick, then refreshes the comparison snapshot.
// Exact value comparison bounds steady-state traffic: a settled ball goes
// quiet.
func (s *Server) broadcastChanges() {
	for _, id := range s.sortedIDs() {
		b := s.balls[id]
		if last, ok := s.lastTarget[id]; !ok || !last.IsEqualTo(b.TargetVelocity) {
			s.transport.Broadcast(channel.TargetVelocity, channel.NewComponentUpdate(id, b.TargetVelocity))
			s.lastTarget[id] = b.TargetVelocity
		}
		if last, ok := s.lastPosition[id]; !ok || !last.IsEqualTo(b.Position) {
			s.transport.Broadcast(channel.Position, channel.NewComponentUpdate(id, b.Position))
			s.lastPosition[id] = b.Position
		}
	}
}

func (s *Server) sortedIDs() []game.BallID {
	ids := make([]game.BallID, 0, len(s.balls))
	for id := range s.balls {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BallView is a read-only copy of one ball plus its ownership binding.
type BallView struct {
	game.Ball
	Owner PeerID `json:"owner,omitempty"`
}

// WorldView returns a copy of the current world, sorted by ball ID. Safe
// to call from other goroutines.
func (s *Server) WorldView() []BallView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]BallView, 0, len(s.balls))
	for _, id := range s.sortedIDs() {
		out = append(out, BallView{Ball: *s.balls[id], Owner: s.owners[id]})
	}
	return out
}
