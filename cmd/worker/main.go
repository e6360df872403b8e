package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"denta-link/internal/config"
	dbpostgres "denta-link/internal/database/postgres"
	persistence "denta-link/internal/infrastructure/persistence/postgres"
	"denta-link/internal/infrastructure/stream"
	"denta-link/internal/pkg/logger"
	"denta-link/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog := logger.New(cfg.App.Environment).With().Str("component", "bonus-worker").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := dbpostgres.Connect(ctx, cfg.Database)
	cancel()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect database")
	}
	defer func() {
		_ = db.Close()
	}()

	consumer, err := stream.NewConsumer(cfg.Redis, zlog)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect change feed")
	}
	defer func() {
		_ = consumer.Close()
	}()

	processor := worker.NewProcessor(persistence.NewReferralRepository(db), cfg.Referral.BonusAmount, zlog)
	runner := worker.NewRunner(consumer, processor, zlog)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Info().Str("stream", cfg.Redis.Stream).Str("group", cfg.Redis.ConsumerGroup).Msg("bonus worker started")
	if err := runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Fatal().Err(err).Msg("worker stopped")
	}
	zlog.Info().Msg("bonus worker stopped")
}
