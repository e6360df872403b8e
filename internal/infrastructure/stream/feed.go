package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"denta-link/internal/config"
	"denta-link/internal/domain/application"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
)

// ApplicationEvent is one change-feed record: the event kind plus before and
// after images of the application row. EventID is stable across redeliveries
// of the same event, which is what the bonus processor dedups on.
type ApplicationEvent struct {
	EventID    string                   `json:"eventId"`
	EventName  string                   `json:"eventName"`
	Old        *application.Application `json:"old,omitempty"`
	New        *application.Application `json:"new,omitempty"`
	OccurredAt time.Time                `json:"occurredAt"`
}

type Publisher interface {
	PublishApplicationChange(ctx context.Context, ev ApplicationEvent) error
}

// NewModifyEvent builds a MODIFY record with a fresh stable event ID.
func NewModifyEvent(old, updated application.Application, at time.Time) ApplicationEvent {
	return ApplicationEvent{
		EventID:    uuid.NewString(),
		EventName:  EventModify,
		Old:        &old,
		New:        &updated,
		OccurredAt: at,
	}
}

func NewInsertEvent(created application.Application, at time.Time) ApplicationEvent {
	return ApplicationEvent{
		EventID:    uuid.NewString(),
		EventName:  EventInsert,
		New:        &created,
		OccurredAt: at,
	}
}

// RedisFeed publishes application changes to a Redis stream. Publishing is
// best-effort when Redis is down at construction time: the feed degrades to a
// logged no-op rather than taking request handling down with it.
type RedisFeed struct {
	client *redis.Client
	stream string
	logger zerolog.Logger
}

func NewRedisFeed(cfg config.RedisConfig, logger zerolog.Logger) *RedisFeed {
	client := newClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, change feed disabled")
		_ = client.Close()
		return &RedisFeed{client: nil, stream: cfg.Stream, logger: logger}
	}

	return &RedisFeed{client: client, stream: cfg.Stream, logger: logger}
}

func newClient(cfg config.RedisConfig) *redis.Client {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "6379"
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: cfg.Password,
		DB:       0,
	})
}

func (f *RedisFeed) PublishApplicationChange(ctx context.Context, ev ApplicationEvent) error {
	if f == nil || f.client == nil {
		return nil
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	err = f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: f.stream,
		Values: map[string]any{"event": string(b)},
	}).Err()
	if err != nil {
		f.logger.Error().Err(err).Str("event_id", ev.EventID).Msg("change feed publish failed")
		return err
	}
	return nil
}

func (f *RedisFeed) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}
