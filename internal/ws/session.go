package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playrollio/backend/internal/channel"
	"github.com/playrollio/backend/internal/sim"
)

// ServerPeer is the handle a client session assigns to its one remote
// peer, the server.
const ServerPeer sim.PeerID = 1

// Session is the client side of the transport: a single dialed
// connection presented through the same interface the server hub
// implements, with the server as the only peer.
type Session struct {
	mu   sync.Mutex
	conn *websocket.Conn
	send chan []byte
	once sync.Once

	events  []sim.Event
	inbound [channel.Count][]sim.Inbound
}

// Dial connects to the server's websocket endpoint. The Connected event
// for the server peer is queued as soon as the dial succeeds.
func Dial(url string, settings channel.ReliableSettings) (*Session, error) {
	dialer := websocket.Dialer{
		ReadBufferSize:   settings.RecvWindowSize,
		WriteBufferSize:  settings.SendWindowSize,
		HandshakeTimeout: settings.MaxRTT * 5,
	}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		conn:   conn,
		send:   make(chan []byte, 256),
		events: []sim.Event{{Kind: sim.Connected, Peer: ServerPeer}},
	}

	go s.writePump()
	go s.readPump()
	return s, nil
}

func (s *Session) readPump() {
	defer func() {
		s.close()
		s.mu.Lock()
		s.events = append(s.events, sim.Event{Kind: sim.Disconnected, Peer: ServerPeer})
		s.mu.Unlock()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] read error: %v", err)
			}
			return
		}

		env, err := channel.DecodeEnvelope(data)
		if err != nil {
			log.Printf("[WS] bad frame from server: %v", err)
			continue
		}

		s.mu.Lock()
		s.inbound[env.Channel] = append(s.inbound[env.Channel], sim.Inbound{Peer: ServerPeer, Envelope: env})
		s.mu.Unlock()
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[WS] write error: %v", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error: %v", err)
				return
			}
		}
	}
}

// PollEvents returns and clears the pending lifecycle events.
func (s *Session) PollEvents() []sim.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

// Drain returns and clears the inbound queue of one channel.
func (s *Session) Drain(ch channel.ID) []sim.Inbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	queued := s.inbound[ch]
	s.inbound[ch] = nil
	return queued
}

// Send delivers one message to the server.
func (s *Session) Send(peer sim.PeerID, ch channel.ID, payload interface{}) error {
	if peer != ServerPeer {
		return sim.ErrUnknownPeer
	}
	data, err := channel.Encode(ch, payload)
	if err != nil {
		return err
	}
	s.enqueue(ch, data)
	return nil
}

// Broadcast sends to every peer, which for a client session is just the
// server.
func (s *Session) Broadcast(ch channel.ID, payload interface{}) {
	if err := s.Send(ServerPeer, ch, payload); err != nil {
		log.Printf("[WS] broadcast on %s failed: %v", ch, err)
	}
}

func (s *Session) enqueue(ch channel.ID, data []byte) {
	defer func() {
		recover() // racing close, equivalent to a drop
	}()

	select {
	case s.send <- data:
	default:
		if ch.IsReliable() {
			log.Printf("[WS] server too slow for reliable channel %s, closing", ch)
			s.conn.Close()
			return
		}
		log.Printf("[WS] dropped %s message to server (buffer full)", ch)
	}
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.send)
		s.conn.Close()
	})
}

// Close tears the session down.
func (s *Session) Close() {
	s.close()
}
