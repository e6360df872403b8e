package negotiation

import (
	"context"
	"errors"
	"time"

	"denta-link/internal/apperr"
	"denta-link/internal/domain/application"
	"denta-link/internal/domain/negotiation"
	"denta-link/internal/infrastructure/stream"

	"github.com/rs/zerolog"
)

// Propagator applies a negotiation outcome to the application record, which
// is the single source of truth for whether a job is filled. The negotiation
// is keyed by application ID but the application store is keyed by
// (job, professional), so the caller hands over the already-resolved record.
type Propagator struct {
	apps   application.Repository
	feed   stream.Publisher
	logger zerolog.Logger
}

func NewPropagator(apps application.Repository, feed stream.Publisher, logger zerolog.Logger) *Propagator {
	return &Propagator{apps: apps, feed: feed, logger: logger}
}

func (p *Propagator) Apply(ctx context.Context, app application.Application, outcome negotiation.Status, agreed *float64, now time.Time) (application.Status, error) {
	var target application.Status
	switch outcome {
	case negotiation.StatusAccepted:
		target = application.StatusScheduled
	case negotiation.StatusDeclined:
		target = application.StatusDeclined
	case negotiation.StatusCounterOffer:
		target = application.StatusNegotiating
	default:
		return "", apperr.New(apperr.CodeInternal, "unknown negotiation outcome")
	}

	if outcome == negotiation.StatusAccepted {
		// Finalizing is the commit step of the accept saga and the only
		// conditional write: a concurrent accept loses here, not earlier.
		if err := p.apps.Finalize(ctx, app.JobID, app.ProfessionalID, agreed, now); err != nil {
			if errors.Is(err, application.ErrStale) {
				return "", apperr.New(apperr.CodeConflict, "application is no longer acceptable")
			}
			return "", apperr.Wrap(apperr.CodeInternal, "finalize application", err)
		}
	} else {
		if err := p.apps.UpdateStatus(ctx, app.JobID, app.ProfessionalID, target, now); err != nil {
			return "", apperr.Wrap(apperr.CodeInternal, "update application status", err)
		}
	}

	after := app
	after.Status = target
	after.UpdatedAt = now
	if outcome == negotiation.StatusAccepted {
		after.AcceptedHourlyRate = agreed
		after.AcceptedRate = agreed
	}
	if err := p.feed.PublishApplicationChange(ctx, stream.NewModifyEvent(app, after, now)); err != nil {
		p.logger.Error().Err(err).
			Str("application_id", app.ApplicationID.String()).
			Msg("publish negotiation outcome event failed")
	}

	return target, nil
}
