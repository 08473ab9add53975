package sketch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"Inkwell/internal/models"
)

const writeWait = 10 * time.Second

// Session is one client connection bound to one room. It joins the room
// once right after the handshake and mirrors server events into a Cache.
// Received events are never re-sent.
type Session struct {
	conn   *websocket.Conn
	roomID int64
	cache  *Cache

	writeMu sync.Mutex
}

// Connect dials baseURL (http, https, ws or wss) with the given token and
// joins roomID.
func Connect(ctx context.Context, baseURL, token string, roomID int64, cache *Cache) (*Session, error) {
	endpoint, err := socketURL(baseURL, token)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", baseURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", baseURL, err)
	}

	s := &Session{conn: conn, roomID: roomID, cache: cache}
	if err := s.send(models.Inbound{Type: models.MessageTypeJoinRoom, RoomID: roomID}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join room %d: %w", roomID, err)
	}
	return s, nil
}

func socketURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

func (s *Session) RoomID() int64 { return s.roomID }

// Run reads server frames into the cache until the connection closes or
// ctx is cancelled. A policy violation close is returned as *websocket.CloseError.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var msg models.Outbound
		if err := json.Unmarshal(data, &msg); err != nil {
			cacheLogger().Warn("Invalid JSON received", "error", err)
			continue
		}
		if msg.RoomID != s.roomID {
			continue
		}
		s.cache.Apply(msg)
	}
}

// Draw sends a new shape. It appears in the cache when the server echoes it.
func (s *Session) Draw(shape Shape) error {
	raw, err := Marshal(shape)
	if err != nil {
		return err
	}
	return s.DrawRaw(raw)
}

// DrawRaw sends an already serialized shape.
func (s *Session) DrawRaw(raw string) error {
	return s.send(models.Inbound{Type: models.MessageTypeChat, RoomID: s.roomID, Message: raw})
}

// Erase removes a shape locally and asks the room to drop it.
func (s *Session) Erase(raw string) error {
	s.cache.ApplyErase(raw)
	return s.send(models.Inbound{Type: models.MessageTypeErase, RoomID: s.roomID, Shape: raw})
}

// EraseAt erases the newest shape under (x, y), if any.
func (s *Session) EraseAt(x, y, tol float64) (bool, error) {
	entry, ok := s.cache.FindAt(x, y, tol)
	if !ok {
		return false, nil
	}
	return true, s.Erase(entry.Raw)
}

// Leave tells the server to stop sending this room's events.
func (s *Session) Leave() error {
	return s.send(models.Inbound{Type: models.MessageTypeLeaveRoom, RoomID: s.roomID})
}

func (s *Session) send(msg models.Inbound) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func (s *Session) Close() error {
	s.writeMu.Lock()
	err := s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	if cerr := s.conn.Close(); cerr != nil && !errors.Is(cerr, websocket.ErrCloseSent) {
		return cerr
	}
	return err
}
