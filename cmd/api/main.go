package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/do"

	"github.com/mindbridge/counsel/backend/internal/config"
	"github.com/mindbridge/counsel/backend/internal/logging"
)

func main() {
	logging.Preinit()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using system environment only", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Init(cfg.Log)

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		stop()
		os.Exit(1)
	}
}

// run wires the services and serves until ctx is done. Services are shut
// down before it returns.
func run(ctx context.Context, cfg *config.Config) error {
	di := do.New()
	defer func() {
		if err := di.Shutdown(); err != nil {
			slog.Error("failed to shut down services", "error", err)
		}
	}()

	do.ProvideValue(di, ctx)
	do.ProvideValue(di, cfg)
	register(di)

	router, err := do.Invoke[http.Handler](di)
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}

	return startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("counseling backend listening", "addr", serverCfg.Addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
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
