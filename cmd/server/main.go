package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"denta-link/internal/app"
	"denta-link/internal/config"
	"denta-link/internal/database/migration"
	"denta-link/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog := logger.New(cfg.App.Environment)

	container, err := app.NewContainer(cfg, zlog)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to build container")
	}
	defer func() {
		if err := container.Close(); err != nil {
			zlog.Error().Err(err).Msg("cleanup error")
		}
	}()

	migCtx, cancelMig := context.WithTimeout(context.Background(), 60*time.Second)
	if err := (migration.Runner{Dir: cfg.Database.MigrationsDir}).Run(migCtx, container.DB.SQLDB()); err != nil {
		cancelMig()
		zlog.Fatal().Err(err).Msg("migrations failed")
	}
	cancelMig()

	srv := app.New(container, zlog)

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid HTTP port")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Fiber.Listen(addr)
	}()
	zlog.Info().Str("addr", addr).Msg("server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zlog.Fatal().Err(err).Msg("server error")
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Fiber.ShutdownWithContext(ctx); err != nil {
			zlog.Error().Err(err).Msg("shutdown error")
		}
	}
}
