package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/uninspired/inspire-wall/backend/internal/app"
	"github.com/uninspired/inspire-wall/backend/internal/config"
	"github.com/uninspired/inspire-wall/backend/internal/handler"
	"github.com/uninspired/inspire-wall/backend/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	wallApp, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize wall", zap.Error(err))
	}
	defer wallApp.Close()

	// Initial load; failures already fell back to renderable data.
	loadCtx, cancel := context.WithTimeout(ctx, 2*cfg.Gateway.Timeout)
	if err := wallApp.Wall.Reload(loadCtx); err != nil {
		logger.Warn("initial load failed, serving fallback data", zap.Error(err))
	}
	cancel()

	if err := wallApp.Scheduler.Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	router := handler.NewRouter(handler.Dependencies{
		Wall:      wallApp.Wall,
		Reactions: wallApp.Reactions,
		Emotion:   wallApp.Emotion,
		Hub:       wallApp.Hub,
		Metrics:   wallApp.Metrics,
		Logger:    logger,
	})

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Inspire Wall backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
