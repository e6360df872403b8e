package application

import (
	"context"
	"errors"
	"time"

	"denta-link/internal/apperr"
	"denta-link/internal/domain/application"
	"denta-link/internal/domain/negotiation"
	"denta-link/internal/domain/posting"
	"denta-link/internal/infrastructure/stream"
	"denta-link/internal/pkg/authz"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	apps         application.Repository
	postings     posting.Repository
	negotiations negotiation.Repository
	feed         stream.Publisher
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(
	apps application.Repository,
	postings posting.Repository,
	negotiations negotiation.Repository,
	feed stream.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		apps:         apps,
		postings:     postings,
		negotiations: negotiations,
		feed:         feed,
		logger:       logger,
		now:          time.Now,
	}
}

type ApplyInput struct {
	ProposedHourlyRate *float64
	CounterSalaryMin   *float64
	CounterSalaryMax   *float64
}

type ApplyResult struct {
	Application application.Application
	// Negotiation is set when the proposed terms differ from the posting's
	// listed terms, which opens a counter-offer exchange immediately.
	Negotiation *negotiation.Negotiation
}

func (s *Service) Apply(ctx context.Context, actor authz.Actor, jobID uuid.UUID, in ApplyInput) (ApplyResult, error) {
	if err := authz.Authorize(actor, authz.ActionApply, authz.Resource{}); err != nil {
		return ApplyResult{}, err
	}

	post, err := s.postings.GetByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, posting.ErrNotFound) {
			return ApplyResult{}, apperr.New(apperr.CodeNotFound, "posting not found")
		}
		return ApplyResult{}, apperr.Wrap(apperr.CodeInternal, "load posting", err)
	}
	if post.Status != posting.StatusOpen {
		return ApplyResult{}, apperr.New(apperr.CodeConflict, "posting is not open for applications")
	}

	if post.Kind.Hourly() && in.ProposedHourlyRate != nil && *in.ProposedHourlyRate <= 0 {
		return ApplyResult{}, apperr.New(apperr.CodeValidation, "proposedHourlyRate must be positive")
	}

	now := s.now().UTC()
	app := application.Application{
		JobID:          jobID,
		ProfessionalID: actor.Subject,
		ApplicationID:  uuid.New(),
		Status:         application.StatusPending,
		ProposedRate:   in.ProposedHourlyRate,
		JobKind:        post.Kind,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	neg := openingNegotiation(post, app, in, now)
	if neg != nil {
		app.Status = application.StatusNegotiating
	}

	if err := s.apps.Create(ctx, app); err != nil {
		return ApplyResult{}, apperr.Wrap(apperr.CodeInternal, "create application", err)
	}

	if neg != nil {
		if err := s.negotiations.Create(ctx, *neg); err != nil {
			// The application row exists; fall back to a plain pending bid
			// rather than stranding a negotiating application with no
			// negotiation attached.
			s.logger.Error().Err(err).
				Str("application_id", app.ApplicationID.String()).
				Msg("open negotiation failed, reverting application to pending")
			if uerr := s.apps.UpdateStatus(ctx, jobID, actor.Subject, application.StatusPending, now); uerr != nil {
				s.logger.Error().Err(uerr).
					Str("application_id", app.ApplicationID.String()).
					Msg("revert to pending failed")
			}
			app.Status = application.StatusPending
			neg = nil
		}
	}

	if err := s.feed.PublishApplicationChange(ctx, stream.NewInsertEvent(app, now)); err != nil {
		s.logger.Error().Err(err).Str("application_id", app.ApplicationID.String()).Msg("publish apply event failed")
	}

	return ApplyResult{Application: app, Negotiation: neg}, nil
}

// openingNegotiation decides whether the proposed terms differ from the
// posting's listed terms. Rate fields follow the posting's kind: hourly
// postings negotiate an hourly counter, permanent ones a salary range.
func openingNegotiation(post posting.Posting, app application.Application, in ApplyInput, now time.Time) *negotiation.Negotiation {
	n := negotiation.Negotiation{
		ApplicationID: app.ApplicationID,
		NegotiationID: uuid.New(),
		JobID:         post.JobID,
		Status:        negotiation.StatusCounterOffer,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if post.Kind.Hourly() {
		if in.ProposedHourlyRate == nil {
			return nil
		}
		if post.HourlyRate != nil && *post.HourlyRate == *in.ProposedHourlyRate {
			return nil
		}
		n.ProfessionalCounterHourlyRate = in.ProposedHourlyRate
		return &n
	}

	if in.CounterSalaryMin == nil || in.CounterSalaryMax == nil {
		return nil
	}
	if *in.CounterSalaryMax < *in.CounterSalaryMin {
		return nil
	}
	if post.SalaryMin != nil && post.SalaryMax != nil &&
		*post.SalaryMin == *in.CounterSalaryMin && *post.SalaryMax == *in.CounterSalaryMax {
		return nil
	}
	n.CounterSalaryMin = in.CounterSalaryMin
	n.CounterSalaryMax = in.CounterSalaryMax
	return &n
}

func (s *Service) Withdraw(ctx context.Context, actor authz.Actor, applicationID uuid.UUID) (application.Application, error) {
	return s.close(ctx, actor, applicationID, application.StatusWithdrawn)
}

func (s *Service) Reject(ctx context.Context, actor authz.Actor, applicationID uuid.UUID) (application.Application, error) {
	return s.close(ctx, actor, applicationID, application.StatusRejected)
}

func (s *Service) close(ctx context.Context, actor authz.Actor, applicationID uuid.UUID, target application.Status) (application.Application, error) {
	app, err := s.apps.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.Application{}, apperr.New(apperr.CodeNotFound, "application not found")
		}
		return application.Application{}, apperr.Wrap(apperr.CodeInternal, "load application", err)
	}

	switch target {
	case application.StatusWithdrawn:
		if err := authz.Authorize(actor, authz.ActionManageOwnApp, authz.Resource{ProfessionalID: app.ProfessionalID}); err != nil {
			return application.Application{}, err
		}
	case application.StatusRejected:
		post, err := s.postings.GetByJobID(ctx, app.JobID)
		if err != nil {
			if errors.Is(err, posting.ErrNotFound) {
				return application.Application{}, apperr.New(apperr.CodeNotFound, "posting not found")
			}
			return application.Application{}, apperr.Wrap(apperr.CodeInternal, "load posting", err)
		}
		if err := authz.Authorize(actor, authz.ActionReviewApps, authz.Resource{ClinicID: post.ClinicID}); err != nil {
			return application.Application{}, err
		}
	}

	if app.Status.Terminal() {
		return application.Application{}, apperr.WithDetails(apperr.CodeConflict,
			"application is already in a terminal status", map[string]any{"status": app.Status})
	}

	now := s.now().UTC()
	if err := s.apps.UpdateStatus(ctx, app.JobID, app.ProfessionalID, target, now); err != nil {
		return application.Application{}, apperr.Wrap(apperr.CodeInternal, "update application status", err)
	}

	after := app
	after.Status = target
	after.UpdatedAt = now
	if err := s.feed.PublishApplicationChange(ctx, stream.NewModifyEvent(app, after, now)); err != nil {
		s.logger.Error().Err(err).Str("application_id", applicationID.String()).Msg("publish close event failed")
	}

	return after, nil
}

func (s *Service) ListByJob(ctx context.Context, actor authz.Actor, jobID uuid.UUID) ([]application.Application, error) {
	post, err := s.postings.GetByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, posting.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "posting not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "load posting", err)
	}
	if err := authz.Authorize(actor, authz.ActionReviewApps, authz.Resource{ClinicID: post.ClinicID}); err != nil {
		return nil, err
	}

	out, err := s.apps.ListByJob(ctx, jobID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list applications", err)
	}
	return out, nil
}

func (s *Service) ListMine(ctx context.Context, actor authz.Actor) ([]application.Application, error) {
	if err := authz.Authorize(actor, authz.ActionManageOwnApp, authz.Resource{ProfessionalID: actor.Subject}); err != nil {
		return nil, err
	}
	out, err := s.apps.ListByProfessional(ctx, actor.Subject)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list applications", err)
	}
	return out, nil
}
