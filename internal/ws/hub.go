package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playrollio/backend/internal/channel"
	"github.com/playrollio/backend/internal/sim"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 20
)

// Hub owns one websocket connection per remote peer and multiplexes the
// logical channels over it. Lifecycle events and inbound frames are
// queued here and drained by the simulation loop at tick boundaries, so
// entity state only ever mutates inside a tick.
type Hub struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	registry [channel.Count]channel.Settings

	nextPeer sim.PeerID
	clients  map[sim.PeerID]*client

	events  []sim.Event
	inbound [channel.Count][]sim.Inbound
}

// client is one connected peer with its outbound queue.
type client struct {
	peer sim.PeerID
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub builds a hub using the reliable-channel settings for transport
// buffer sizing. TCP supplies retransmission and ordering underneath, so
// the RTT knobs of the registry are realized by the socket, not here.
func NewHub(settings channel.ReliableSettings) *Hub {
	registry := channel.Registry()
	for i := range registry {
		if registry[i].Mode == channel.Reliable {
			registry[i].Reliable = settings
		}
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  settings.RecvWindowSize,
			WriteBufferSize: settings.SendWindowSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // game clients connect cross-origin
			},
		},
		registry: registry,
		clients:  make(map[sim.PeerID]*client),
	}
}

// HandleUpgrade upgrades an HTTP request into a peer connection.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	h.mu.Lock()
	h.nextPeer++
	c := &client{
		peer: h.nextPeer,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.clients[c.peer] = c
	h.events = append(h.events, sim.Event{Kind: sim.Connected, Peer: c.peer})
	h.mu.Unlock()

	log.Printf("[WS] peer %d connected from %s", c.peer, conn.RemoteAddr())

	go c.writePump()
	go h.readPump(c)
}

// readPump reads frames from one peer until the connection dies, then
// unregisters it.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] read error for peer %d: %v", c.peer, err)
			}
			return
		}

		env, err := channel.DecodeEnvelope(data)
		if err != nil {
			log.Printf("[WS] bad frame from peer %d: %v", c.peer, err)
			continue
		}

		h.mu.Lock()
		h.inbound[env.Channel] = append(h.inbound[env.Channel], sim.Inbound{Peer: c.peer, Envelope: env})
		h.mu.Unlock()
	}
}

func (h *Hub) unregister(c *client) {
	c.close()

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.peer]; !ok {
		return // already unregistered
	}
	delete(h.clients, c.peer)
	h.events = append(h.events, sim.Event{Kind: sim.Disconnected, Peer: c.peer})
	log.Printf("[WS] peer %d disconnected", c.peer)
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// writePump owns all writes to the connection, including keepalive pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[WS] write error for peer %d: %v", c.peer, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for peer %d: %v", c.peer, err)
				return
			}
		}
	}
}

// PollEvents returns and clears the pending lifecycle events.
func (h *Hub) PollEvents() []sim.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := h.events
	h.events = nil
	return events
}

// Drain returns and clears the inbound queue of one channel.
func (h *Hub) Drain(ch channel.ID) []sim.Inbound {
	h.mu.Lock()
	defer h.mu.Unlock()
	queued := h.inbound[ch]
	h.inbound[ch] = nil
	return queued
}

// Send delivers one message to one peer. An unknown peer handle returns
// sim.ErrUnknownPeer. A full buffer drops unreliable messages with a log
// line; on a reliable channel it closes the peer instead, since silently
// dropping would break the ordering guarantee.
func (h *Hub) Send(peer sim.PeerID, ch channel.ID, payload interface{}) error {
	data, err := channel.Encode(ch, payload)
	if err != nil {
		return err
	}

	h.mu.Lock()
	c, ok := h.clients[peer]
	h.mu.Unlock()
	if !ok {
		return sim.ErrUnknownPeer
	}

	h.enqueue(c, ch, data)
	return nil
}

// Broadcast delivers one message to every connected peer, best-effort.
func (h *Hub) Broadcast(ch channel.ID, payload interface{}) {
	data, err := channel.Encode(ch, payload)
	if err != nil {
		log.Printf("[WS] broadcast encode on %s failed: %v", ch, err)
		return
	}

	h.mu.Lock()
	peers := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		peers = append(peers, c)
	}
	h.mu.Unlock()

	for _, c := range peers {
		h.enqueue(c, ch, data)
	}
}

func (h *Hub) enqueue(c *client, ch channel.ID, data []byte) {
	defer func() {
		// The send channel closes when the peer unregisters; a late
		// enqueue racing that close is equivalent to a drop.
		recover()
	}()

	select {
	case c.send <- data:
	default:
		if h.registry[ch].Mode == channel.Reliable {
			log.Printf("[WS] peer %d too slow for reliable channel %s, closing", c.peer, ch)
			c.conn.Close()
			return
		}
		log.Printf("[WS] dropped %s message for peer %d (buffer full)", ch, c.peer)
	}
}

// Close shuts down every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		peers = append(peers, c)
	}
	h.mu.Unlock()

	for _, c := range peers {
		c.close()
	}
}
