package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guardx/internal/api"
	"guardx/internal/app/service"
	"guardx/internal/app/worker"
	"guardx/internal/common/security"
	"guardx/internal/domain/repository"
	"guardx/internal/platform/config"
	"guardx/internal/platform/database"
	"guardx/internal/platform/events"
	"guardx/internal/platform/inference"
)

func main() {
	if err := run(); err != nil {
		slog.Error("GUARD-X server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load Configuration
	cfg := config.Load()
	slog.Info("GUARD-X detection backend initializing", "port", cfg.APIPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Credentials and tokens
	tokens := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)
	userRepo, err := repository.NewStaticUserRepository(cfg)
	if err != nil {
		return err
	}

	// 3. Operation log
	db, err := database.Connect(cfg.AuditDBDriver, cfg.AuditDBDSN)
	if err != nil {
		return err
	}
	defer database.Close(db)
	opRepo := repository.NewSQLOperationRepository(db, cfg.AuditDBDriver)

	// 4. Detection feed (Redis when configured)
	rdb, err := events.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer events.CloseRedis(rdb)
	var feed events.Feed = events.NewMemoryFeed(cfg.FeedSize)
	if rdb != nil {
		feed = events.NewRedisFeed(rdb, cfg.FeedKey, cfg.FeedChannel, cfg.FeedSize)
	}

	// 5. Models. The server starts even when none load.
	engine := inference.NewClient(cfg.InferenceURL, cfg.InferenceTimeout)
	host := service.NewModelHost(engine, cfg.CustomModelPath, cfg.FallbackModel, cfg.DefaultConfidence)
	if err := host.LoadModels(ctx); err != nil {
		slog.Warn("Starting in DEGRADED mode", "error", err)
	}

	// 6. Inference pool
	pool := worker.NewInferencePool(cfg.InferenceWorkers, cfg.InferenceQueue)
	poolCtx, poolCancel := context.WithCancel(context.Background())
	defer poolCancel()
	pool.Start(poolCtx)
	defer pool.Stop()

	// 7. Services and router
	authService := service.NewAuthService(userRepo, tokens)
	detectionService := service.NewDetectionService(host, pool, opRepo, feed, cfg.MaxImagePixels)
	systemService := service.NewSystemService(host, userRepo, opRepo)

	router := api.NewRouter(api.RouterConfig{
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.InferenceTimeout + 30*time.Second,
	}, tokens, authService, detectionService, systemService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.InferenceTimeout + 45*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Serve until a signal arrives
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server and inference pool stopped gracefully")
	return nil
}
