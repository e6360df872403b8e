package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"denta-link/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Delivery is one stream entry handed to a consumer. StreamID is the Redis
// entry ID used for acking; Event is the decoded payload.
type Delivery struct {
	StreamID string
	Event    ApplicationEvent
}

// Consumer reads the application change feed through a consumer group, which
// gives at-least-once delivery: entries stay pending until acked, and stale
// pending entries are reclaimed on the next pass.
type Consumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   zerolog.Logger
}

func NewConsumer(cfg config.RedisConfig, logger zerolog.Logger) (*Consumer, error) {
	client := newClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	c := &Consumer{
		client:   client,
		stream:   cfg.Stream,
		group:    cfg.ConsumerGroup,
		consumer: cfg.ConsumerName,
		logger:   logger,
	}
	if err := c.ensureGroup(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return c, nil
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// ReadBatch blocks up to block for new entries, after first reclaiming
// entries another consumer left pending for longer than minIdle.
func (c *Consumer) ReadBatch(ctx context.Context, count int64, block, minIdle time.Duration) ([]Delivery, error) {
	reclaimed, err := c.reclaim(ctx, count, minIdle)
	if err != nil {
		return nil, err
	}
	if len(reclaimed) > 0 {
		return reclaimed, nil
	}

	res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var out []Delivery
	for _, s := range res {
		out = append(out, c.decode(s.Messages)...)
	}
	return out, nil
}

func (c *Consumer) reclaim(ctx context.Context, count int64, minIdle time.Duration) ([]Delivery, error) {
	if minIdle <= 0 {
		return nil, nil
	}
	msgs, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: c.consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return c.decode(msgs), nil
}

func (c *Consumer) decode(msgs []redis.XMessage) []Delivery {
	out := make([]Delivery, 0, len(msgs))
	for _, m := range msgs {
		raw, ok := m.Values["event"].(string)
		if !ok {
			// Malformed entry: ack so it does not wedge the group.
			c.logger.Warn().Str("stream_id", m.ID).Msg("stream entry missing event payload, acking")
			_ = c.Ack(context.Background(), m.ID)
			continue
		}
		var ev ApplicationEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			c.logger.Warn().Err(err).Str("stream_id", m.ID).Msg("undecodable stream entry, acking")
			_ = c.Ack(context.Background(), m.ID)
			continue
		}
		out = append(out, Delivery{StreamID: m.ID, Event: ev})
	}
	return out
}

func (c *Consumer) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.client.XAck(ctx, c.stream, c.group, ids...).Err()
}

func (c *Consumer) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
