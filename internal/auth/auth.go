package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Close reasons sent with status 1008 when a handshake is rejected.
const (
	ReasonNoURL          = "no url"
	ReasonTokenMissing   = "Token missing"
	ReasonInvalidToken   = "Invalid token"
	ReasonInvalidPayload = "Invalid token payload"
)

func authLogger() *slog.Logger { return slog.With("component", "auth") }

// RejectError is returned when a credential does not authenticate.
type RejectError struct {
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *RejectError) Unwrap() error { return e.Err }

// Claims is the signed token body. ID is the user identity.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Authenticator verifies and issues HMAC signed tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates an Authenticator. A zero ttl issues tokens without expiry.
func New(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Authenticate extracts the token query parameter from a handshake URL and
// returns the identity it carries.
func (a *Authenticator) Authenticate(u *url.URL) (string, error) {
	if u == nil {
		return "", &RejectError{Reason: ReasonNoURL}
	}

	token := u.Query().Get("token")
	if token == "" {
		return "", &RejectError{Reason: ReasonTokenMissing}
	}

	return a.Verify(token)
}

// VerifyBearer checks an Authorization header of the form "Bearer <token>".
func (a *Authenticator) VerifyBearer(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", &RejectError{Reason: ReasonTokenMissing}
	}
	return a.Verify(token)
}

// Verify validates signature and expiry and returns the identity.
func (a *Authenticator) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		authLogger().Debug("token rejected", "error", err)
		return "", &RejectError{Reason: ReasonInvalidToken, Err: err}
	}

	if claims.ID == "" {
		return "", &RejectError{Reason: ReasonInvalidPayload}
	}
	return claims.ID, nil
}

// Issue signs a token for the given identity.
func (a *Authenticator) Issue(id string) (string, error) {
	claims := Claims{ID: id}
	now := a.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if a.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(a.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// HashSecret hashes a room secret or password with bcrypt.
func HashSecret(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// CheckSecret reports whether plain matches hash.
func CheckSecret(hash, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		authLogger().Warn("secret comparison failed", "error", err)
	}
	return err == nil
}
