package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/dude613/avoda-desktop/internal/capture"
	"github.com/dude613/avoda-desktop/internal/session"
	"github.com/gorilla/websocket"
)

// ErrTooManyConnections is returned by AddClient once the configured
// client limit is reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
}

// Broadcaster fans engine status changes and capture events out to the
// connected WebSocket clients. Event methods never block: sends go to
// buffered per-client channels, and a client that cannot keep up is
// disconnected rather than allowed to stall the notifying goroutine.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	maxConns int
}

var (
	_ session.Notifier = (*Broadcaster)(nil)
	_ capture.Events   = (*Broadcaster)(nil)
)

// NewBroadcaster returns a broadcaster allowing up to maxConns clients.
// Zero means no limit.
func NewBroadcaster(maxConns int) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*client]bool),
		maxConns: maxConns,
	}
}

// AddClient registers a connection and queues the initial state snapshot
// so a newly connected client renders without waiting for the next event.
func (b *Broadcaster) AddClient(conn *websocket.Conn, snap session.Snapshot) (*client, error) {
	data, err := json.Marshal(WSMessage{
		Type:    MsgSnapshot,
		Payload: SnapshotPayload{Session: snap},
	})
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	c := &client{
		conn: conn,
		b:    b,
		send: make(chan []byte, 64),
	}
	b.clients[c] = true
	c.send <- data
	b.mu.Unlock()

	go c.writePump()
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

// StatusChanged implements session.Notifier. It runs on the goroutine
// performing the state transition and must return quickly.
func (b *Broadcaster) StatusChanged(snap session.Snapshot) {
	b.broadcast(WSMessage{Type: MsgStatusUpdate, Payload: snap})
}

// CaptureTaken implements capture.Events.
func (b *Broadcaster) CaptureTaken(id string) {
	b.broadcast(WSMessage{Type: MsgNewScreenshot, Payload: ScreenshotPayload{ID: id}})
}

// CaptureFailed implements capture.Events.
func (b *Broadcaster) CaptureFailed(msg string) {
	b.broadcast(WSMessage{Type: MsgScreenshotError, Payload: ErrorPayload{Message: msg}})
}

// broadcast delivers one message to every client. Sends happen under the
// read lock so a channel can never be closed mid-send; slow clients are
// collected and removed after the lock is released.
func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		// Client can't keep up, disconnect it
		log.Printf("ws client too slow, disconnecting")
		b.RemoveClient(c)
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Stop disconnects every client. Used on shutdown.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}
