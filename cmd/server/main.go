package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"Inkwell/internal/auth"
	"Inkwell/internal/config"
	"Inkwell/internal/gateway"
	"Inkwell/internal/handlers"
	"Inkwell/internal/models"
	"Inkwell/internal/protocol"
	"Inkwell/internal/storage"
	"Inkwell/internal/websocket"
)

func serverLogger() *slog.Logger { return slog.With("component", "server") }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.SetupLogger()

	serverLogger().Info("Starting Inkwell whiteboard server")

	store, err := openStore(cfg)
	if err != nil {
		serverLogger().Error("Failed to open persistence gateway", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Connection registry and room event router
	hub := websocket.NewHub()
	authn := auth.New(cfg.JWTSecret, cfg.TokenTTL)
	router := protocol.NewRouter(hub, store, cfg.PersistTimeout)

	r := mux.NewRouter()
	api := handlers.NewAPI(store, authn, hub)
	api.Routes(r, handlers.NewWSHandler(hub, router, authn, cfg.AllowedOrigins))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		var err error
		if cfg.TLSEnabled() {
			srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			serverLogger().Info("Server listening", "addr", srv.Addr, "tls", true)
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			serverLogger().Info("Server listening", "addr", srv.Addr, "tls", false)
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			serverLogger().Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	serverLogger().Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serverLogger().Error("Shutdown error", "error", err)
	}
	serverLogger().Info("Server stopped")
}

// openStore prefers a remote gateway, then Postgres, then memory.
func openStore(cfg config.Config) (models.Store, error) {
	switch {
	case cfg.GatewayAddr != "":
		client, err := gateway.Dial(cfg.GatewayAddr)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Health(ctx); err != nil {
			serverLogger().Warn("Persistence gateway not healthy yet", "error", err)
		}
		serverLogger().Info("Using remote persistence gateway", "address", cfg.GatewayAddr)
		return client, nil

	case cfg.DBConn != "":
		pg, err := storage.NewStorage(cfg.DBConn)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		serverLogger().Info("Database connection established")
		return pg, nil
	}

	serverLogger().Warn("INKWELL_DB_CONN not set, drawings are kept in memory only")
	return storage.NewMemory(), nil
}
