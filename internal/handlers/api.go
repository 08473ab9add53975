package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"Inkwell/internal/auth"
	"Inkwell/internal/models"
	wsHub "Inkwell/internal/websocket"
)

func apiLogger() *slog.Logger { return slog.With("component", "api") }

type ctxKey struct{}

// API serves the HTTP side of the whiteboard: accounts, rooms and history.
type API struct {
	Store models.Store
	Auth  *auth.Authenticator
	Hub   *wsHub.Hub
}

func NewAPI(store models.Store, authn *auth.Authenticator, hub *wsHub.Hub) *API {
	return &API{Store: store, Auth: authn, Hub: hub}
}

// Routes mounts every endpoint, including the websocket one, on r.
func (a *API) Routes(r *mux.Router, ws *WSHandler) {
	r.HandleFunc("/health", a.Health).Methods(http.MethodGet)
	r.HandleFunc("/stats", a.Stats).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)

	authR := r.PathPrefix("/api/auth").Subrouter()
	authR.HandleFunc("/signup", a.Signup).Methods(http.MethodPost)
	authR.HandleFunc("/login", a.Login).Methods(http.MethodPost)
	authR.HandleFunc("/logout", a.Logout).Methods(http.MethodPost)
	authR.Handle("/me", a.RequireUser(http.HandlerFunc(a.Me))).Methods(http.MethodGet)

	roomR := r.PathPrefix("/api/ws").Subrouter()
	roomR.Handle("/room", a.RequireUser(http.HandlerFunc(a.CreateRoom))).Methods(http.MethodPost)
	roomR.HandleFunc("/room/{slug}", a.GetRoom).Methods(http.MethodGet)
	roomR.HandleFunc("/joinroom", a.JoinRoom).Methods(http.MethodPost)
	roomR.HandleFunc("/chat/{roomId}", a.GetChats).Methods(http.MethodGet)
}

// RequireUser rejects requests without a valid bearer token and stores the
// identity in the request context.
func (a *API) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.Auth.VerifyBearer(r.Header.Get("Authorization"))
		if err != nil {
			fail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentials) validate(signup bool) string {
	if !strings.Contains(c.Email, "@") {
		return "Invalid email address"
	}
	if len(c.Password) < 6 {
		return "Password must be at least 6 characters"
	}
	if signup && strings.TrimSpace(c.Name) == "" {
		return "Name cannot be empty"
	}
	return ""
}

func (a *API) Signup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid Credentials")
		return
	}
	if msg := body.validate(true); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}

	hash, err := auth.HashSecret(body.Password)
	if err != nil {
		internal(w, err)
		return
	}

	user, err := a.Store.CreateUser(r.Context(), models.User{Name: body.Name, Email: body.Email, PasswordHash: hash})
	if errors.Is(err, models.ErrConflict) {
		fail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		internal(w, err)
		return
	}

	a.respondWithToken(w, user)
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "Invalid Credentials")
		return
	}
	if msg := body.validate(false); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}

	user, err := a.Store.FindUserByEmail(r.Context(), body.Email)
	if errors.Is(err, models.ErrNotFound) {
		fail(w, http.StatusBadRequest, "Email not registered")
		return
	}
	if err != nil {
		internal(w, err)
		return
	}
	if !auth.CheckSecret(user.PasswordHash, body.Password) {
		fail(w, http.StatusBadRequest, "Entered wrong Password")
		return
	}

	a.respondWithToken(w, user)
}

func (a *API) respondWithToken(w http.ResponseWriter, user models.User) {
	token, err := a.Auth.Issue(user.ID)
	if err != nil {
		internal(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "user": user, "token": token})
}

func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{"success": true, "message": "Logged Out Successfully"})
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	user, err := a.Store.FindUserByID(r.Context(), userFrom(r.Context()))
	if errors.Is(err, models.ErrNotFound) {
		fail(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internal(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

type createRoomRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

func (a *API) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var body createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "Incorrect inputs")
		return
	}
	if n := len(body.Name); n < 3 || n > 30 {
		fail(w, http.StatusBadRequest, "Incorrect inputs")
		return
	}
	if len(body.Secret) < 3 {
		fail(w, http.StatusBadRequest, "room secret is missing")
		return
	}

	hash, err := auth.HashSecret(body.Secret)
	if err != nil {
		internal(w, err)
		return
	}

	room, err := a.Store.CreateRoom(r.Context(), models.Room{
		Slug:       body.Name,
		AdminID:    userFrom(r.Context()),
		SecretHash: hash,
	})
	if errors.Is(err, models.ErrConflict) {
		fail(w, http.StatusConflict, "Room already exists")
		return
	}
	if err != nil {
		internal(w, err)
		return
	}

	apiLogger().Info("room created", "roomId", room.ID, "slug", room.Slug, "userId", room.AdminID)
	respond(w, http.StatusOK, map[string]any{"success": true, "room": room})
}

func (a *API) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := a.Store.FindRoomBySlug(r.Context(), mux.Vars(r)["slug"])
	if errors.Is(err, models.ErrNotFound) {
		fail(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		internal(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "roomId": room.ID})
}

type joinRoomRequest struct {
	Room   string `json:"room"`
	Secret string `json:"secret"`
}

// JoinRoom checks a plaintext secret against the room's hash. It does not
// touch websocket membership; clients send join_room afterwards.
func (a *API) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var body joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "Incorrect inputs")
		return
	}

	room, err := a.Store.FindRoomBySlug(r.Context(), body.Room)
	if errors.Is(err, models.ErrNotFound) {
		fail(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		internal(w, err)
		return
	}

	if !auth.CheckSecret(room.SecretHash, body.Secret) {
		fail(w, http.StatusBadRequest, "Incorrect secret")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"canJoin": true,
		"room":    map[string]string{"slug": room.Slug},
	})
}

type chatRow struct {
	Message string `json:"message"`
}

func (a *API) GetChats(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.ParseInt(mux.Vars(r)["roomId"], 10, 64)
	if err != nil || roomID == 0 {
		fail(w, http.StatusBadRequest, "Invalid or missing roomId")
		return
	}

	records, err := a.Store.FindChatRecords(r.Context(), roomID)
	if err != nil {
		internal(w, err)
		return
	}

	messages := make([]chatRow, 0, len(records))
	for _, rec := range records {
		messages = append(messages, chatRow{Message: rec.Message})
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "messages": messages})
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "inkwell",
	})
}

func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	conns, rooms := a.Hub.Stats()
	respond(w, http.StatusOK, map[string]int{"connections": conns, "rooms": rooms})
}

func respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		apiLogger().Warn("encode response", "error", err)
	}
}

func fail(w http.ResponseWriter, code int, message string) {
	respond(w, code, map[string]any{"success": false, "message": message})
}

func internal(w http.ResponseWriter, err error) {
	apiLogger().Error("request failed", "error", err)
	fail(w, http.StatusInternalServerError, "Internal server error")
}
