package websocket

import (
	"log/slog"
	"sync"
)

func hubLogger() *slog.Logger { return slog.With("component", "hub") }

// Connection is one live channel as seen by the hub and the router.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// MessageHandler processes one inbound frame from a registered connection.
type MessageHandler interface {
	Handle(conn Connection, data []byte)
}

type member struct {
	userID string
	rooms  map[int64]struct{}
}

// Hub is the process-wide registry of live connections and the rooms each
// one has joined. All access goes through its methods under a single mutex.
type Hub struct {
	mu    sync.RWMutex
	conns map[Connection]*member
}

// NewHub creates an empty registry.
func NewHub() *Hub {
	return &Hub{conns: make(map[Connection]*member)}
}

// Register adds an authenticated connection with no rooms. A second
// registration of the same connection is logged and ignored.
func (h *Hub) Register(conn Connection, userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.conns[conn]; exists {
		hubLogger().Error("connection already registered", "clientId", conn.ID(), "userId", userID)
		return false
	}
	h.conns[conn] = &member{userID: userID, rooms: make(map[int64]struct{})}

	hubLogger().Info("client connected", "clientId", conn.ID(), "userId", userID, "clients", len(h.conns))
	return true
}

// Unregister removes the connection and all of its memberships. It is safe
// to call more than once.
func (h *Hub) Unregister(conn Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, exists := h.conns[conn]
	if !exists {
		return false
	}
	delete(h.conns, conn)

	hubLogger().Info("client disconnected", "clientId", conn.ID(), "userId", m.userID, "rooms", len(m.rooms), "clients", len(h.conns))
	return true
}

// JoinRoom adds roomID to the connection's rooms. Joining twice is a no-op.
// It reports false when the connection is not registered.
func (h *Hub) JoinRoom(conn Connection, roomID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, exists := h.conns[conn]
	if !exists {
		return false
	}
	m.rooms[roomID] = struct{}{}
	return true
}

// LeaveRoom removes roomID from the connection's rooms if present.
func (h *Hub) LeaveRoom(conn Connection, roomID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, exists := h.conns[conn]
	if !exists {
		return false
	}
	delete(m.rooms, roomID)
	return true
}

// Identity returns the user a registered connection authenticated as.
func (h *Hub) Identity(conn Connection) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m, exists := h.conns[conn]
	if !exists {
		return "", false
	}
	return m.userID, true
}

// Rooms returns a copy of the rooms the connection has joined.
func (h *Hub) Rooms(conn Connection) []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m, exists := h.conns[conn]
	if !exists {
		return nil
	}
	rooms := make([]int64, 0, len(m.rooms))
	for id := range m.rooms {
		rooms = append(rooms, id)
	}
	return rooms
}

// MembersOf returns a snapshot of the connections that joined roomID.
// Callers may send to the snapshot without holding the hub lock.
func (h *Hub) MembersOf(roomID int64) []Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var members []Connection
	for conn, m := range h.conns {
		if _, ok := m.rooms[roomID]; ok {
			members = append(members, conn)
		}
	}
	return members
}

// Stats reports live connections and distinct rooms with at least one member.
func (h *Hub) Stats() (connections, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	distinct := make(map[int64]struct{})
	for _, m := range h.conns {
		for id := range m.rooms {
			distinct[id] = struct{}{}
		}
	}
	return len(h.conns), len(distinct)
}
