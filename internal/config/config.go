package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process settings for the server, the gateway and the CLI.
type Config struct {
	Port           string
	DBConn         string
	GatewayAddr    string
	GatewayListen  string
	JWTSecret      string
	TokenTTL       time.Duration
	PersistTimeout time.Duration
	AllowedOrigins []string
	TLSCertFile    string
	TLSKeyFile     string
	LogLevel       slog.Level
}

// Load reads .env files (if any) and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := Config{
		Port:          getenv("PORT", "8080"),
		DBConn:        os.Getenv("INKWELL_DB_CONN"),
		GatewayAddr:   os.Getenv("INKWELL_GATEWAY_ADDR"),
		GatewayListen: getenv("GATEWAY_LISTEN", ":9090"),
		JWTSecret:     getenv("JWT_SECRET", "my-secret"),
		TLSCertFile:   os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:    os.Getenv("TLS_KEY_FILE"),
		LogLevel:      parseLevel(os.Getenv("LOG_LEVEL")),
	}

	var err error
	if cfg.TokenTTL, err = parseDuration("TOKEN_TTL", 0); err != nil {
		return Config{}, err
	}
	if cfg.PersistTimeout, err = parseDuration("PERSIST_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// TLSEnabled reports whether both certificate and key are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// SetupLogger installs the default slog handler at the configured level.
// Component loggers resolve the default on every call, so it must run
// before anything else logs.
func (c Config) SetupLogger() {
	slog.SetDefault(c.NewLogger(os.Stdout))
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func parseLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
