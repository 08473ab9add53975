package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"Inkwell/internal/auth"
	wsHub "Inkwell/internal/websocket"
)

func wsLogger() *slog.Logger { return slog.With("component", "ws") }

// WSHandler upgrades browser connections, authenticates them from the
// token query parameter and hands them to the hub.
type WSHandler struct {
	Hub      *wsHub.Hub
	Router   wsHub.MessageHandler
	Auth     *auth.Authenticator
	upgrader websocket.Upgrader
}

// NewWSHandler creates the websocket endpoint. An empty allowedOrigins
// accepts any origin.
func NewWSHandler(hub *wsHub.Hub, router wsHub.MessageHandler, authn *auth.Authenticator, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		Hub:    hub,
		Router: router,
		Auth:   authn,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

// ServeWS handles websocket connections.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wsLogger().Error("Error WebSocket upgrade", "error", err, "remote", r.RemoteAddr)
		return
	}

	// Close reasons are delivered in-band, so authentication runs after the upgrade.
	userID, err := h.Auth.Authenticate(r.URL)
	if err != nil {
		reason := auth.ReasonInvalidToken
		var rej *auth.RejectError
		if errors.As(err, &rej) {
			reason = rej.Reason
		}
		wsLogger().Warn("WebSocket authentication rejected", "reason", reason, "remote", r.RemoteAddr)
		wsHub.Reject(conn, reason)
		return
	}

	client := wsHub.NewClient(conn, userID, h.Hub, h.Router)
	wsLogger().Info("WebSocket connection established", "clientId", client.ID(), "userId", userID, "remote", r.RemoteAddr)
	client.Start()
}
