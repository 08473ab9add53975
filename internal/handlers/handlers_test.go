package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Inkwell/internal/auth"
	"Inkwell/internal/models"
	"Inkwell/internal/protocol"
	"Inkwell/internal/storage"
	wsHub "Inkwell/internal/websocket"
)

type testEnv struct {
	srv   *httptest.Server
	store *storage.Memory
	auth  *auth.Authenticator
	hub   *wsHub.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: storage.NewMemory(),
		auth:  auth.New("test-secret", time.Hour),
		hub:   wsHub.NewHub(),
	}
	router := protocol.NewRouter(env.hub, env.store, time.Second)
	api := NewAPI(env.store, env.auth, env.hub)

	r := mux.NewRouter()
	api.Routes(r, NewWSHandler(env.hub, router, env.auth, nil))
	env.srv = httptest.NewServer(r)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	code, body := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Test", "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, code, body)
	return body["token"].(string)
}

func TestAPI_SignupLoginMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada@example.com")

	code, body := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Again", "email": "ada@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email already registered", body["message"])

	code, body = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Entered wrong Password", body["message"])

	code, body = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["token"])

	code, body = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "PasswordHash")
}

func TestAPI_SignupValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"bad email", map[string]string{"name": "a", "email": "nope", "password": "secret123"}, "Invalid email address"},
		{"short password", map[string]string{"name": "a", "email": "a@b.c", "password": "123"}, "Password must be at least 6 characters"},
		{"empty name", map[string]string{"name": " ", "email": "a@b.c", "password": "secret123"}, "Name cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := env.do(t, http.MethodPost, "/api/auth/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.want, body["message"])
		})
	}
}

func TestAPI_RoomLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "owner@example.com")

	code, _ := env.do(t, http.MethodPost, "/api/ws/room", "", map[string]string{"name": "studio", "secret": "abc"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := env.do(t, http.MethodPost, "/api/ws/room", token, map[string]string{"name": "studio", "secret": "abc"})
	require.Equal(t, http.StatusOK, code, body)
	room := body["room"].(map[string]any)
	assert.Equal(t, "studio", room["slug"])
	assert.NotContains(t, room, "secret")

	code, _ = env.do(t, http.MethodPost, "/api/ws/room", token, map[string]string{"name": "studio", "secret": "abc"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = env.do(t, http.MethodPost, "/api/ws/room", token, map[string]string{"name": "ab", "secret": "abc"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/api/ws/room/studio", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, room["id"], body["roomId"])

	code, _ = env.do(t, http.MethodGet, "/api/ws/room/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = env.do(t, http.MethodPost, "/api/ws/joinroom", "", map[string]string{"room": "studio", "secret": "abc"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["canJoin"])

	code, body = env.do(t, http.MethodPost, "/api/ws/joinroom", "", map[string]string{"room": "studio", "secret": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Incorrect secret", body["message"])
}

func TestAPI_GetChats(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	for _, msg := range []string{"first", "second"} {
		_, err := env.store.CreateChatRecord(ctx, models.ChatRecord{RoomID: 3, UserID: "u", Message: msg})
		require.NoError(t, err)
	}

	code, body := env.do(t, http.MethodGet, "/api/ws/chat/3", "", nil)
	require.Equal(t, http.StatusOK, code)
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "second", messages[0].(map[string]any)["message"])

	code, _ = env.do(t, http.MethodGet, "/api/ws/chat/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func TestServeWS_AuthGate(t *testing.T) {
	env := newTestEnv(t)
	forged, err := auth.New("other-secret", 0).Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		query  string
		reason string
	}{
		{"missing token", "", auth.ReasonTokenMissing},
		{"garbage token", "?token=garbage", auth.ReasonInvalidToken},
		{"forged token", "?token=" + forged, auth.ReasonInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, _, err := websocket.DefaultDialer.Dial(wsURL(env.srv, tt.query), nil)
			require.NoError(t, err)
			defer conn.Close()

			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err = conn.ReadMessage()

			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
			assert.Equal(t, tt.reason, closeErr.Text)

			conns, _ := env.hub.Stats()
			assert.Zero(t, conns)
		})
	}
}

func dialAs(t *testing.T, env *testEnv, user string, rooms ...int64) *websocket.Conn {
	t.Helper()
	token, err := env.auth.Issue(user)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(env.srv, "?token="+token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	for _, id := range rooms {
		require.NoError(t, conn.WriteJSON(models.Inbound{Type: models.MessageTypeJoinRoom, RoomID: id}))
	}
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestServeWS_Scenario(t *testing.T) {
	env := newTestEnv(t)

	a := dialAs(t, env, "alice", 42)
	b := dialAs(t, env, "bob", 42)
	c := dialAs(t, env, "carol", 7)

	waitFor(t, func() bool { return len(env.hub.MembersOf(42)) == 2 && len(env.hub.MembersOf(7)) == 1 })

	shape := `{"type":"circle","centerX":5,"centerY":5,"radius":3}`
	require.NoError(t, a.WriteJSON(models.Inbound{Type: models.MessageTypeChat, RoomID: 42, Message: shape}))

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.Outbound
	require.NoError(t, b.ReadJSON(&got))
	assert.Equal(t, models.Outbound{Type: models.MessageTypeChat, RoomID: 42, Message: shape}, got)

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, a.ReadJSON(&got))
	assert.Equal(t, shape, got.Message)

	c.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := c.ReadMessage()
	assert.Error(t, err, "client in another room must receive nothing")
}

func TestServeWS_MalformedFrameKeepsConnection(t *testing.T) {
	env := newTestEnv(t)
	a := dialAs(t, env, "alice", 1)
	waitFor(t, func() bool { return len(env.hub.MembersOf(1)) == 1 })

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{oops")))
	require.NoError(t, a.WriteJSON(models.Inbound{Type: models.MessageTypeChat, RoomID: 1, Message: "m"}))

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.Outbound
	require.NoError(t, a.ReadJSON(&got))
	assert.Equal(t, "m", got.Message)
}

func TestServeWS_DisconnectCleanup(t *testing.T) {
	env := newTestEnv(t)
	a := dialAs(t, env, "alice", 1, 2)
	waitFor(t, func() bool { return len(env.hub.MembersOf(2)) == 1 })

	a.Close()

	waitFor(t, func() bool {
		conns, _ := env.hub.Stats()
		return conns == 0
	})
	assert.Empty(t, env.hub.MembersOf(1))
	assert.Empty(t, env.hub.MembersOf(2))
}
