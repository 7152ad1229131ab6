// Package room implements the per-project broadcast channel. A Hub owns an
// explicit map from project id to room; each room holds the currently
// attached WebSocket connections. Delivery is FIFO per room and best-effort
// per connection: a slow or dead connection is detached, never waited on.
package room

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vagentd/pkg/logger"
	"vagentd/pkg/models"
	"vagentd/pkg/telemetry"
)

// sendBuffer is the per-connection outbound queue. When it fills the
// connection is considered dead and detached.
const sendBuffer = 64

// writeWait bounds a single WebSocket write.
const writeWait = 10 * time.Second

// Hub is the registry of live project rooms.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

type room struct {
	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// Conn is one attached connection. Writes flow through a buffered channel
// drained by a single pump goroutine, which preserves publish order.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// Join attaches a WebSocket connection to a project's room and starts its
// write pump. Any initial frames are enqueued before the connection is
// registered, so they always precede the first published event. New joiners
// otherwise see only events published after they joined; there is no
// history replay.
func (h *Hub) Join(projectID string, ws *websocket.Conn, initial ...[]byte) *Conn {
	c := &Conn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	for _, b := range initial {
		c.send <- b
	}
	h.mu.Lock()
	r, ok := h.rooms[projectID]
	if !ok {
		r = &room{conns: make(map[*Conn]struct{})}
		h.rooms[projectID] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()

	telemetry.RoomConnections.Inc()
	go c.writePump()
	return c
}

// Leave detaches a connection from a project's room. Detaching never
// affects delivery order for the remaining connections. Safe to call more
// than once.
func (h *Hub) Leave(projectID string, c *Conn) {
	h.mu.Lock()
	r, ok := h.rooms[projectID]
	h.mu.Unlock()
	if ok {
		r.mu.Lock()
		if _, attached := r.conns[c]; attached {
			delete(r.conns, c)
			telemetry.RoomConnections.Dec()
		}
		r.mu.Unlock()
	}
	c.close()
}

// Publish delivers an event to every connection currently attached to the
// project's room, in publish order. Publishing to a room with no attached
// connections is a no-op. Connections that cannot keep up are detached.
func (h *Hub) Publish(projectID string, ev models.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		logger.Error("event_marshal_failed", "project", projectID, "type", ev.Type, "error", err)
		return
	}
	h.mu.RLock()
	r, ok := h.rooms[projectID]
	h.mu.RUnlock()
	telemetry.MessagesPublished.WithLabelValues(ev.Type).Inc()
	if !ok {
		return
	}

	var dead []*Conn
	r.mu.Lock()
	for c := range r.conns {
		select {
		case <-c.done:
			dead = append(dead, c)
		case c.send <- b:
		default:
			// send buffer full: the client stopped draining
			dead = append(dead, c)
		}
	}
	r.mu.Unlock()

	for _, c := range dead {
		telemetry.DeliveriesDropped.Inc()
		h.Leave(projectID, c)
	}
}

// Attached reports how many connections the project's room currently holds.
func (h *Hub) Attached(projectID string) int {
	h.mu.RLock()
	r, ok := h.rooms[projectID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Done is closed when the connection's write pump has exited. The read side
// uses it to end its loop promptly after a write failure.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// ReadJSON reads the next inbound frame into v. It blocks until a frame
// arrives or the connection drops.
func (c *Conn) ReadJSON(v any) error {
	return c.ws.ReadJSON(v)
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump drains the send channel onto the socket. A single goroutine per
// connection keeps frame order equal to publish order. The first write
// error ends the pump; the hub detaches the connection on the next publish
// or when the reader observes Done.
func (c *Conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.close()
				return
			}
		}
	}
}
