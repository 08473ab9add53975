package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"Inkwell/internal/config"
	"Inkwell/internal/gateway"
	"Inkwell/internal/storage"
)

func serverLogger() *slog.Logger { return slog.With("component", "gatewayd") }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.SetupLogger()

	serverLogger().Info("Starting persistence gateway gRPC server")

	if cfg.DBConn == "" {
		serverLogger().Error("Environment variable INKWELL_DB_CONN is not set")
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.DBConn)
	if err != nil {
		serverLogger().Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = store.Migrate(migrateCtx)
	cancel()
	if err != nil {
		serverLogger().Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	serverLogger().Info("Database connection established")

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(gateway.LoggingInterceptor),
	)
	gateway.RegisterGatewayServer(grpcServer, gateway.NewServer(store))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(gateway.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Reflection for grpcurl debugging
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GatewayListen)
	if err != nil {
		serverLogger().Error("Failed to listen", "address", cfg.GatewayListen, "error", err)
		os.Exit(1)
	}

	go func() {
		serverLogger().Info("gRPC server is listening", "address", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			serverLogger().Error("gRPC server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	serverLogger().Info("Shutdown signal received")
	healthServer.Shutdown()

	shutdownTimer := time.NewTimer(5 * time.Second)
	defer shutdownTimer.Stop()

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		serverLogger().Info("gRPC server stopped gracefully")
	case <-shutdownTimer.C:
		serverLogger().Warn("Force stopping gRPC server")
		grpcServer.Stop()
	}

	serverLogger().Info("Persistence gateway shutdown complete")
}
