package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/database"
	"github.com/ruralpay/ledger/internal/handlers"
	"github.com/ruralpay/ledger/internal/services"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/ruralpay/ledger/internal/store/memory"
	"github.com/ruralpay/ledger/internal/store/postgres"
)

// @title Ledger API
// @version 1.0
// @description Client balances, deposits, withdrawals and transfers
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize storage
	var st store.Store
	switch cfg.Ledger.Store {
	case config.StoreMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		st = memory.New()
	default:
		db, err := database.InitDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer closeDB(db, logger)

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		st = postgres.New(db)
	}

	redisClient := database.InitRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	ledgerService := services.NewLedgerService(st,
		services.WithNamePolicy(cfg.NamePolicy()),
		services.WithAuditLogger(audit.NewLogger(logger)),
		services.WithLogger(logger),
	)
	authService := services.NewAuthService(st, ledgerService, redisClient, cfg.AuthConfig(), logger)

	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			logger.Fatal("Failed to seed admin user", zap.Error(err))
		}
	}

	router := handlers.NewRouter(ledgerService, authService, handlers.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, logger)

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr), zap.String("store", cfg.Ledger.Store))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("Server stopped")
}

func closeDB(db *sql.DB, logger *zap.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}
}
