package sim

import (
	"testing"

	"github.com/playrollio/backend/internal/channel"
	"github.com/playrollio/backend/internal/game"
)

// testServerPeer is the peer handle a client-side fake hands out for the
// server, mirroring the session transport.
const testServerPeer PeerID = 1

// fakeTransport records everything the loops send and lets tests stage
// events and inbound frames, standing in for the websocket layer.
type fakeTransport struct {
	t *testing.T

	events  []Event
	inbound [channel.Count][]Inbound

	sends      []fakeSend
	broadcasts [channel.Count][]channel.Envelope
}

type fakeSend struct {
	Peer     PeerID
	Channel  channel.ID
	Envelope channel.Envelope
}

func newFakeTransport(t *testing.T) *fakeTransport {
	return &fakeTransport{t: t}
}

func (f *fakeTransport) queueEvent(kind EventKind, peer PeerID) {
	f.events = append(f.events, Event{Kind: kind, Peer: peer})
}

func (f *fakeTransport) queueInbound(peer PeerID, ch channel.ID, payload interface{}) {
	f.t.Helper()
	env := f.encode(ch, payload)
	f.inbound[ch] = append(f.inbound[ch], Inbound{Peer: peer, Envelope: env})
}

func (f *fakeTransport) encode(ch channel.ID, payload interface{}) channel.Envelope {
	f.t.Helper()
	frame, err := channel.Encode(ch, payload)
	if err != nil {
		f.t.Fatalf("encode on %s: %v", ch, err)
	}
	env, err := channel.DecodeEnvelope(frame)
	if err != nil {
		f.t.Fatalf("decode on %s: %v", ch, err)
	}
	return env
}

func (f *fakeTransport) PollEvents() []Event {
	events := f.events
	f.events = nil
	return events
}

func (f *fakeTransport) Drain(ch channel.ID) []Inbound {
	queued := f.inbound[ch]
	f.inbound[ch] = nil
	return queued
}

func (f *fakeTransport) Send(peer PeerID, ch channel.ID, payload interface{}) error {
	f.sends = append(f.sends, fakeSend{Peer: peer, Channel: ch, Envelope: f.encode(ch, payload)})
	return nil
}

func (f *fakeTransport) Broadcast(ch channel.ID, payload interface{}) {
	f.broadcasts[ch] = append(f.broadcasts[ch], f.encode(ch, payload))
}

// welcomesTo returns the ball IDs of every welcome sent to the peer.
func (f *fakeTransport) welcomesTo(peer PeerID) []game.BallID {
	f.t.Helper()
	var ids []game.BallID
	for _, s := range f.sends {
		if s.Peer != peer || s.Channel != channel.ServerControl {
			continue
		}
		w, err := channel.DecodePayload[channel.Welcome](s.Envelope)
		if err != nil {
			f.t.Fatalf("decode welcome: %v", err)
		}
		ids = append(ids, w.ID)
	}
	return ids
}

// broadcastsFor returns every broadcast update on ch for one ball.
func (f *fakeTransport) broadcastsFor(ch channel.ID, id game.BallID) []channel.ComponentUpdate {
	f.t.Helper()
	var out []channel.ComponentUpdate
	for _, env := range f.broadcasts[ch] {
		upd, err := channel.DecodePayload[channel.ComponentUpdate](env)
		if err != nil {
			f.t.Fatalf("decode update on %s: %v", ch, err)
		}
		if upd.ID == id {
			out = append(out, upd)
		}
	}
	return out
}

func (f *fakeTransport) clearOutbound() {
	f.sends = nil
	for i := range f.broadcasts {
		f.broadcasts[i] = nil
	}
}
