package sim

import (
	"errors"

	"github.com/playrollio/backend/internal/channel"
)

// PeerID identifies one live remote connection. Handles are only ever
// obtained from a Connected event and become invalid after Disconnected.
type PeerID uint32

// EventKind labels a connection-lifecycle event.
type EventKind uint8

const (
	Connected EventKind = iota
	Disconnected
)

func (k EventKind) String() string {
	if k == Connected {
		return "connected"
	}
	return "disconnected"
}

// Event is a connection-lifecycle notification.
type Event struct {
	Kind EventKind
	Peer PeerID
}

// Inbound is one received wire frame, already split into its envelope.
type Inbound struct {
	Peer     PeerID
	Envelope channel.Envelope
}

// ErrUnknownPeer is returned by Send when the peer handle has no matching
// connection record. Callers holding a handle from a live Connected event
// treat this as a bookkeeping bug, not a runtime condition.
var ErrUnknownPeer = errors.New("unknown peer handle")

// Transport multiplexes the logical channels over per-peer connections.
// All methods are safe to call from the single simulation goroutine;
// PollEvents and Drain are non-blocking and consume the queued items.
type Transport interface {
	// PollEvents returns and clears the pending lifecycle events.
	PollEvents() []Event

	// Drain returns and clears the inbound queue of one channel.
	Drain(ch channel.ID) []Inbound

	// Send delivers one message to one peer. Failures on unreliable
	// channels are logged by the transport and reported here only as a
	// best-effort hint; ErrUnknownPeer means the handle is dead.
	Send(peer PeerID, ch channel.ID, payload interface{}) error

	// Broadcast delivers one message to every connected peer,
	// best-effort.
	Broadcast(ch channel.ID, payload interface{})
}
