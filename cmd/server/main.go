package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/tradearena/backend/internal/api"
	"github.com/tradearena/backend/internal/auth"
	"github.com/tradearena/backend/internal/hashpool"
	"github.com/tradearena/backend/internal/infrastructure/config"
	"github.com/tradearena/backend/internal/store"

	_ "github.com/tradearena/backend/docs" // generated swagger docs
)

// @title           TradeArena API
// @version         1.0
// @description     Trading-competition platform: register, join a competition, trade a virtual book.

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

// @host      localhost:8080
// @BasePath  /

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pool := hashpool.New(
		auth.BcryptExecutor{Cost: cfg.BcryptCost},
		hashpool.Config{Workers: cfg.HashWorkers, TaskTimeout: cfg.HashTimeout},
		logger,
	)
	pool.Initialize()

	authSvc := auth.NewService(db, pool, logger)
	handler := api.NewHandler(db, authSvc, pool, logger)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, handler)

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}

		// Drain the hash pool only after the HTTP server stops taking
		// requests; outstanding hash callers get a settled error.
		pool.Shutdown()
	}()

	logger.Info("starting server", "address", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
