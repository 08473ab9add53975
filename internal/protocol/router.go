package protocol

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"Inkwell/internal/models"
	ws "Inkwell/internal/websocket"
)

func routerLogger() *slog.Logger { return slog.With("component", "router") }

// Registry is the part of the hub the router needs.
type Registry interface {
	Identity(conn ws.Connection) (string, bool)
	JoinRoom(conn ws.Connection, roomID int64) bool
	LeaveRoom(conn ws.Connection, roomID int64) bool
	Unregister(conn ws.Connection) bool
	MembersOf(roomID int64) []ws.Connection
}

// Router applies inbound room events: membership changes go to the
// registry, drawing events are persisted and then fanned out.
type Router struct {
	registry Registry
	store    models.Store
	timeout  time.Duration
}

func NewRouter(registry Registry, store models.Store, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Router{registry: registry, store: store, timeout: timeout}
}

// Handle processes one raw frame. Malformed frames and unknown kinds are
// dropped without closing the connection.
func (r *Router) Handle(conn ws.Connection, data []byte) {
	var msg models.Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		routerLogger().Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	userID, ok := r.registry.Identity(conn)
	if !ok {
		routerLogger().Debug("message from unregistered connection", "clientId", conn.ID(), "type", msg.Type)
		return
	}

	// Persistence is not bound to the connection: a write issued for a
	// closing client still completes.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	switch msg.Type {
	case models.MessageTypeJoinRoom:
		r.registry.JoinRoom(conn, msg.RoomID)
		routerLogger().Debug("joined room", "clientId", conn.ID(), "userId", userID, "roomId", msg.RoomID)

	case models.MessageTypeLeaveRoom:
		r.registry.LeaveRoom(conn, msg.RoomID)
		routerLogger().Debug("left room", "clientId", conn.ID(), "userId", userID, "roomId", msg.RoomID)

	case models.MessageTypeChat:
		r.chat(ctx, userID, msg)

	case models.MessageTypeErase:
		r.erase(ctx, userID, msg)

	default:
		routerLogger().Debug("unknown message type", "clientId", conn.ID(), "type", msg.Type)
	}
}

func (r *Router) chat(ctx context.Context, userID string, msg models.Inbound) {
	_, err := r.store.CreateChatRecord(ctx, models.ChatRecord{
		RoomID:  msg.RoomID,
		UserID:  userID,
		Message: msg.Message,
	})
	if err != nil {
		routerLogger().Error("failed to persist shape, dropping", "userId", userID, "roomId", msg.RoomID, "error", err)
		return
	}

	r.Broadcast(models.Outbound{Type: models.MessageTypeChat, RoomID: msg.RoomID, Message: msg.Message})
}

func (r *Router) erase(ctx context.Context, userID string, msg models.Inbound) {
	n, err := r.store.DeleteChatRecords(ctx, msg.RoomID, msg.Shape)
	if err != nil {
		routerLogger().Error("failed to erase shape, dropping", "userId", userID, "roomId", msg.RoomID, "error", err)
		return
	}
	routerLogger().Debug("shape removed", "userId", userID, "roomId", msg.RoomID, "records", n)

	r.Broadcast(models.Outbound{Type: models.MessageTypeErase, RoomID: msg.RoomID, Shape: msg.Shape})
}

// Broadcast sends msg to every current member of its room, sender included.
// Members that cannot accept the frame are dropped from the registry.
func (r *Router) Broadcast(msg models.Outbound) int {
	data, err := json.Marshal(msg)
	if err != nil {
		routerLogger().Error("marshal error", "roomId", msg.RoomID, "error", err)
		return 0
	}

	delivered := 0
	for _, member := range r.registry.MembersOf(msg.RoomID) {
		if err := member.Send(data); err != nil {
			routerLogger().Warn("dropping slow member", "clientId", member.ID(), "roomId", msg.RoomID, "error", err)
			r.registry.Unregister(member)
			member.Close()
			continue
		}
		delivered++
	}
	return delivered
}
