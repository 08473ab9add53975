package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "INKWELL_DB_CONN", "INKWELL_GATEWAY_ADDR", "GATEWAY_LISTEN", "JWT_SECRET", "TOKEN_TTL", "PERSIST_TIMEOUT", "ALLOWED_ORIGINS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":9090", cfg.GatewayListen)
	assert.Equal(t, "my-secret", cfg.JWTSecret)
	assert.Equal(t, time.Duration(0), cfg.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.PersistTimeout)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("PERSIST_TIMEOUT", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.PersistTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")

	_, err := Load("testdata/missing.env")
	assert.ErrorContains(t, err, "TOKEN_TTL")
}

func TestNewLogger_Level(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf).With("component", "router")
	logger.Warn("slow member")
	logger.Error("failed to persist shape")

	out := buf.String()
	assert.NotContains(t, out, "slow member")
	assert.Contains(t, out, `level=ERROR msg="failed to persist shape" component=router`)
}
