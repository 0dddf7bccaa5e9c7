package http

import (
	"log"
	"sync"

	"quiz-arena/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub tracks live connections and their room membership, and implements the
// app.Gateway broadcast boundary. Each connection gets a buffered send queue
// drained by a single writer goroutine so concurrent broadcasts never write
// to the socket directly.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*connection
	rooms map[string]map[string]*connection
}

type connection struct {
	id   string
	ws   *websocket.Conn
	send chan domain.Envelope
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*connection),
		rooms: make(map[string]map[string]*connection),
	}
}

// Register wires a websocket into the hub and starts its writer.
func (h *Hub) Register(ws *websocket.Conn) string {
	c := &connection{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan domain.Envelope, 32),
	}
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	go func() {
		for env := range c.send {
			if err := c.ws.WriteJSON(env); err != nil {
				log.Printf("ws write error for %s: %v", c.id, err)
				return
			}
		}
	}()
	return c.id
}

// Unregister detaches a connection from the hub and every room.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)
	for gameID, members := range h.rooms {
		if _, ok := members[connID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, gameID)
			}
		}
	}
	close(c.send)
}

// JoinRoom adds a connection to a game's broadcast group.
func (h *Hub) JoinRoom(gameID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	if h.rooms[gameID] == nil {
		h.rooms[gameID] = make(map[string]*connection)
	}
	h.rooms[gameID][connID] = c
}

// Broadcast delivers an envelope to every member of a game's room.
func (h *Hub) Broadcast(gameID string, env domain.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[gameID] {
		c.enqueue(env)
	}
}

// Send delivers an envelope to a single connection.
func (h *Hub) Send(connID string, env domain.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.conns[connID]; ok {
		c.enqueue(env)
	}
}

// MoveRoom re-homes all members of one room into another. Used when a
// replacement game supersedes the previous one.
func (h *Hub) MoveRoom(oldGameID, newGameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[oldGameID]
	if !ok {
		return
	}
	delete(h.rooms, oldGameID)
	if existing, ok := h.rooms[newGameID]; ok {
		for id, c := range members {
			existing[id] = c
		}
		return
	}
	h.rooms[newGameID] = members
}

// CloseRoom drops a room's membership. Connections stay open.
func (h *Hub) CloseRoom(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, gameID)
}

// enqueue never blocks: when a client's queue is full the oldest pending
// event is dropped so a slow reader cannot stall broadcasts.
func (c *connection) enqueue(env domain.Envelope) {
	select {
	case c.send <- env:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- env:
		default:
		}
	}
}
