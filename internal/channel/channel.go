package channel

import "time"

// ID is a logical channel number. The set of channels is fixed and shared
// by server and client; every wire message is tagged with one.
type ID uint8

const (
	// ClientControl carries the initial ClientHello announcement
	// (client -> server). Reliable, ordered.
	ClientControl ID = 0

	// ServerControl carries the ServerWelcome ball assignment
	// (server -> client). Reliable, ordered.
	ServerControl ID = 1

	// Position, Velocity and TargetVelocity carry per-component state
	// updates keyed by ball ID. Unreliable, unordered, last-write-wins:
	// each new message supersedes the previous one, so retransmission
	// would only add latency.
	Position       ID = 2
	Velocity       ID = 3
	TargetVelocity ID = 4
)

// Count is the number of registered channels.
const Count = 5

// Mode is the delivery guarantee of a channel.
type Mode uint8

const (
	Reliable Mode = iota
	Unreliable
)

// ReliableSettings are the tuning knobs a reliable transport must expose:
// bounded bandwidth, send/receive windows and an RTT-driven
// retransmission timer. Defaults are a starting point, not protocol.
type ReliableSettings struct {
	Bandwidth       int // bytes per second
	RecvWindowSize  int
	SendWindowSize  int
	InitialRTT      time.Duration
	MaxRTT          time.Duration
	RTTUpdateFactor float64
	RTTResendFactor float64
}

// DefaultReliableSettings returns the default reliable-channel tuning.
func DefaultReliableSettings() ReliableSettings {
	return ReliableSettings{
		Bandwidth:       4096,
		RecvWindowSize:  1024,
		SendWindowSize:  1024,
		InitialRTT:      200 * time.Millisecond,
		MaxRTT:          2 * time.Second,
		RTTUpdateFactor: 0.1,
		RTTResendFactor: 1.5,
	}
}

// Settings describes one registered channel.
type Settings struct {
	Channel  ID
	Mode     Mode
	Reliable ReliableSettings // zero value when Mode is Unreliable
}

// Registry returns the fixed channel set in channel-ID order.
func Registry() [Count]Settings {
	reliable := DefaultReliableSettings()
	return [Count]Settings{
		{Channel: ClientControl, Mode: Reliable, Reliable: reliable},
		{Channel: ServerControl, Mode: Reliable, Reliable: reliable},
		{Channel: Position, Mode: Unreliable},
		{Channel: Velocity, Mode: Unreliable},
		{Channel: TargetVelocity, Mode: Unreliable},
	}
}

// IsReliable reports whether ch is one of the control channels.
func (ch ID) IsReliable() bool {
	return ch == ClientControl || ch == ServerControl
}

func (ch ID) String() string {
	switch ch {
	case ClientControl:
		return "client-control"
	case ServerControl:
		return "server-control"
	case Position:
		return "position"
	case Velocity:
		return "velocity"
	case TargetVelocity:
		return "target-velocity"
	}
	return "unknown"
}
