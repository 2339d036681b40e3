package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "library-backend/internal/api/grpc"
	httpapi "library-backend/internal/api/http"
	"library-backend/internal/clock"
	"library-backend/internal/config"
	"library-backend/internal/domain"
	"library-backend/internal/logger"
	"library-backend/internal/security"
	"library-backend/internal/service"
	"library-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Library Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open storage", "error", err)
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	// Initialize Security
	clk := clock.System()
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL(), clk)

	// Initialize Services
	periods := domain.LoanPeriods{Default: cfg.DefaultLoanPeriod(), Max: cfg.MaxLoanPeriod()}
	services := httpapi.Services{
		Auth:       service.NewAuthService(store, tokenManager, clk, cfg.Loans.DefaultMaxBooks),
		User:       service.NewUserService(store, clk),
		Book:       service.NewBookService(store, clk),
		Loan:       service.NewLoanService(store, clk, periods),
		Membership: service.NewMembershipService(store),
	}

	// Set up REST server
	restServer := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      httpapi.NewServer(services, tokenManager, clk),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	// Set up gRPC health server
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	healthServer := grpcapi.NewServer(store)
	go healthServer.Watch(15 * time.Second)

	errCh := make(chan error, 2)
	go func() {
		if err := healthServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("REST server listening", "address", restServer.Addr)
		if err := restServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server error", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("REST server shutdown failed", "error", err)
	}
	healthServer.Stop()
	logger.Info("Library Backend stopped. Goodbye!")
}
