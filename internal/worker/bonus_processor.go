package worker

import (
	"context"
	"errors"
	"time"

	"denta-link/internal/domain/application"
	"denta-link/internal/domain/referral"
	"denta-link/internal/infrastructure/stream"

	"github.com/rs/zerolog"
)

// Processor awards referral bonuses off the application change feed. It
// fires on the completion edge only: a MODIFY whose new image is completed
// and whose old image was not. Redelivered events are recognized by their
// event ID; claim and increment commit atomically, so a failed award stays
// unclaimed and is retried on the next delivery.
type Processor struct {
	referrals   referral.Repository
	bonusAmount float64
	logger      zerolog.Logger
}

func NewProcessor(referrals referral.Repository, bonusAmount float64, logger zerolog.Logger) *Processor {
	return &Processor{referrals: referrals, bonusAmount: bonusAmount, logger: logger}
}

// ProcessBatch handles one delivered batch. A failure on one record is
// logged and the record left unacked for redelivery; it never stops the
// siblings. The returned IDs are the entries safe to ack.
func (p *Processor) ProcessBatch(ctx context.Context, deliveries []stream.Delivery) (acked []string) {
	for _, d := range deliveries {
		if err := p.processOne(ctx, d.Event); err != nil {
			p.logger.Error().Err(err).
				Str("stream_id", d.StreamID).
				Str("event_id", d.Event.EventID).
				Msg("bonus processing failed, leaving for redelivery")
			continue
		}
		acked = append(acked, d.StreamID)
	}
	return acked
}

func (p *Processor) processOne(ctx context.Context, ev stream.ApplicationEvent) error {
	if !completionEdge(ev) {
		return nil
	}

	rec, err := p.referrals.GetRecord(ctx, ev.New.ProfessionalID)
	if err != nil {
		if errors.Is(err, referral.ErrNotFound) {
			// Professional was not referred; nothing to award.
			return nil
		}
		return err
	}

	awarded, err := p.referrals.AwardBonusOnce(ctx, ev.EventID, rec.ReferrerID, p.bonusAmount)
	if err != nil {
		return err
	}
	if !awarded {
		p.logger.Debug().Str("event_id", ev.EventID).Msg("event already processed, skipping")
		return nil
	}

	p.logger.Info().
		Str("referrer_id", rec.ReferrerID.String()).
		Str("professional_id", ev.New.ProfessionalID.String()).
		Float64("amount", p.bonusAmount).
		Msg("referral bonus awarded")
	return nil
}

// completionEdge is transition-edge detection, not level detection: an
// already-completed record passing by again must not qualify.
func completionEdge(ev stream.ApplicationEvent) bool {
	if ev.EventName != stream.EventModify {
		return false
	}
	if ev.New == nil || ev.New.Status != application.StatusCompleted {
		return false
	}
	if ev.Old != nil && ev.Old.Status == application.StatusCompleted {
		return false
	}
	return true
}

// Runner drives the consumer loop for the worker binary.
type Runner struct {
	consumer  *stream.Consumer
	processor *Processor
	logger    zerolog.Logger

	BatchSize int
	Block     time.Duration
	MinIdle   time.Duration
}

func NewRunner(consumer *stream.Consumer, processor *Processor, logger zerolog.Logger) *Runner {
	return &Runner{
		consumer:  consumer,
		processor: processor,
		logger:    logger,
		BatchSize: 32,
		Block:     5 * time.Second,
		MinIdle:   time.Minute,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := r.consumer.ReadBatch(ctx, int64(r.BatchSize), r.Block, r.MinIdle)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.logger.Error().Err(err).Msg("change feed read failed")
			time.Sleep(time.Second)
			continue
		}
		if len(batch) == 0 {
			continue
		}

		acked := r.processor.ProcessBatch(ctx, batch)
		if err := r.consumer.Ack(ctx, acked...); err != nil {
			r.logger.Error().Err(err).Msg("ack failed, entries will be redelivered")
		}
	}
}
