package app

import (
	"context"
	"time"

	"denta-link/internal/config"
	dbpostgres "denta-link/internal/database/postgres"
	"denta-link/internal/infrastructure/stream"

	"github.com/rs/zerolog"
)

type Container struct {
	Config config.Config
	DB     *dbpostgres.Pool
	Feed   *stream.RedisFeed
}

func NewContainer(cfg config.Config, logger zerolog.Logger) (*Container, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	feed := stream.NewRedisFeed(cfg.Redis, logger)

	return &Container{Config: cfg, DB: db, Feed: feed}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Feed != nil {
		_ = c.Feed.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
