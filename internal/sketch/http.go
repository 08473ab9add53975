package sketch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// API talks to the server's HTTP endpoints.
type API struct {
	BaseURL string
	HTTP    *http.Client
}

func NewAPI(baseURL string) *API {
	return &API{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	RoomID   int64  `json:"roomId"`
	CanJoin  bool   `json:"canJoin"`
	Messages []struct {
		Message string `json:"message"`
	} `json:"messages"`
}

// Login exchanges credentials for a token.
func (a *API) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := a.call(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// RoomID resolves a room slug to its numeric id.
func (a *API) RoomID(ctx context.Context, slug string) (int64, error) {
	resp, err := a.call(ctx, http.MethodGet, "/api/ws/room/"+url.PathEscape(slug), nil)
	if err != nil {
		return 0, err
	}
	return resp.RoomID, nil
}

// JoinRoom checks the room secret.
func (a *API) JoinRoom(ctx context.Context, slug, secret string) (bool, error) {
	resp, err := a.call(ctx, http.MethodPost, "/api/ws/joinroom", map[string]string{"room": slug, "secret": secret})
	if err != nil {
		return false, err
	}
	return resp.CanJoin, nil
}

// History returns a room's stored payloads, newest first.
func (a *API) History(ctx context.Context, roomID int64) ([]string, error) {
	resp, err := a.call(ctx, http.MethodGet, "/api/ws/chat/"+strconv.FormatInt(roomID, 10), nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, m.Message)
	}
	return out, nil
}

func (a *API) call(ctx context.Context, method, path string, body any) (*apiResponse, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := a.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	if res.StatusCode != http.StatusOK || !out.Success {
		return nil, fmt.Errorf("%s %s: %d %s", method, path, res.StatusCode, out.Message)
	}
	return &out, nil
}
