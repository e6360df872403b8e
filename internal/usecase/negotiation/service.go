package negotiation

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
	negotiations negotiation.Repository
	apps         application.Repository
	postings     posting.Repository
	propagator   *Propagator
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(
	negotiations negotiation.Repository,
	apps application.Repository,
	postings posting.Repository,
	feed stream.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		negotiations: negotiations,
		apps:         apps,
		postings:     postings,
		propagator:   NewPropagator(apps, feed, logger),
		logger:       logger,
		now:          time.Now,
	}
}

type RespondInput struct {
	Response string
	Message  string

	CounterSalaryMin              *float64
	CounterSalaryMax              *float64
	ClinicCounterHourlyRate       *float64
	ProfessionalCounterHourlyRate *float64
}

type RespondResult struct {
	Actor              negotiation.Actor
	Response           negotiation.Status
	ApplicationStatus  application.Status
	AcceptedHourlyRate *float64
}

// Respond mediates one turn of the counter-offer exchange: resolve which
// party is speaking, validate the payload against the job kind, compute the
// agreed rate on acceptance, persist the negotiation, then propagate the
// outcome onto the application.
func (s *Service) Respond(ctx context.Context, actor authz.Actor, applicationID, negotiationID uuid.UUID, in RespondInput) (RespondResult, error) {
	neg, err := s.negotiations.Get(ctx, applicationID, negotiationID)
	if err != nil {
		if errors.Is(err, negotiation.ErrNotFound) {
			return RespondResult{}, apperr.New(apperr.CodeNotFound, "negotiation not found")
		}
		return RespondResult{}, apperr.Wrap(apperr.CodeInternal, "load negotiation", err)
	}

	app, err := s.apps.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return RespondResult{}, apperr.New(apperr.CodeNotFound, "application not found")
		}
		return RespondResult{}, apperr.Wrap(apperr.CodeInternal, "load application", err)
	}

	post, err := s.postings.GetByJobID(ctx, app.JobID)
	if err != nil {
		if errors.Is(err, posting.ErrNotFound) {
			return RespondResult{}, apperr.New(apperr.CodeNotFound, "posting not found")
		}
		return RespondResult{}, apperr.Wrap(apperr.CodeInternal, "load posting", err)
	}

	party, err := resolveActor(actor, post, app)
	if err != nil {
		return RespondResult{}, err
	}

	// Terminal application statuses are final; a late response must not
	// revive or overwrite one.
	if app.Status.Terminal() {
		return RespondResult{}, apperr.WithDetails(apperr.CodeConflict,
			"application is already in a terminal status", map[string]any{"status": app.Status})
	}

	response, ok := negotiation.ParseStatus(in.Response)
	if !ok {
		return RespondResult{}, apperr.WithDetails(apperr.CodeValidation, "unknown response",
			[]negotiation.Status{negotiation.StatusAccepted, negotiation.StatusDeclined, negotiation.StatusCounterOffer})
	}

	if response == negotiation.StatusCounterOffer {
		if err := validateCounterOffer(app.JobKind, party, in); err != nil {
			return RespondResult{}, err
		}
	}

	var agreed *float64
	if response == negotiation.StatusAccepted && app.JobKind.Hourly() {
		agreed, err = agreedHourlyRate(party, neg, app)
		if err != nil {
			return RespondResult{}, err
		}
	}

	now := s.now().UTC()
	applyResponse(&neg, party, response, in, agreed, now)

	if err := s.negotiations.Update(ctx, neg); err != nil {
		return RespondResult{}, apperr.Wrap(apperr.CodeInternal, "update negotiation", err)
	}

	appStatus, err := s.propagator.Apply(ctx, app, response, agreed, now)
	if err != nil {
		return RespondResult{}, err
	}

	return RespondResult{
		Actor:              party,
		Response:           response,
		ApplicationStatus:  appStatus,
		AcceptedHourlyRate: agreed,
	}, nil
}

func (s *Service) ListByApplication(ctx context.Context, actor authz.Actor, applicationID uuid.UUID) ([]negotiation.Negotiation, error) {
	app, err := s.apps.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "application not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "load application", err)
	}
	post, err := s.postings.GetByJobID(ctx, app.JobID)
	if err != nil {
		if errors.Is(err, posting.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "posting not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "load posting", err)
	}
	if err := authz.Authorize(actor, authz.ActionRespond, authz.Resource{
		ClinicID:       post.ClinicID,
		ProfessionalID: app.ProfessionalID,
	}); err != nil {
		return nil, err
	}

	out, err := s.negotiations.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list negotiations", err)
	}
	return out, nil
}

// resolveActor maps the caller onto a side of the table: the posting's
// owning clinic, the applying professional, or nobody.
func resolveActor(actor authz.Actor, post posting.Posting, app application.Application) (negotiation.Actor, error) {
	if err := authz.Authorize(actor, authz.ActionRespond, authz.Resource{
		ClinicID:       post.ClinicID,
		ProfessionalID: app.ProfessionalID,
	}); err != nil {
		return "", err
	}
	if actor.Subject == post.ClinicID {
		return negotiation.ActorClinic, nil
	}
	return negotiation.ActorProfessional, nil
}

// validateCounterOffer checks the payload against the job kind and the acting
// party. On hourly jobs each side may only put forward its own counter field;
// a payload carrying only the counterpart's number is rejected, otherwise a
// party could later accept a figure it planted itself.
func validateCounterOffer(kind posting.Kind, party negotiation.Actor, in RespondInput) error {
	if kind.Hourly() {
		if party == negotiation.ActorClinic && in.ClinicCounterHourlyRate == nil {
			return apperr.New(apperr.CodeInvalidCounterOffer, "clinic counter offers require clinicCounterHourlyRate")
		}
		if party == negotiation.ActorProfessional && in.ProfessionalCounterHourlyRate == nil {
			return apperr.New(apperr.CodeInvalidCounterOffer, "professional counter offers require professionalCounterHourlyRate")
		}
		return nil
	}
	if in.CounterSalaryMin == nil || in.CounterSalaryMax == nil {
		return apperr.New(apperr.CodeInvalidCounterOffer, "salary counter offers require counterSalaryMin and counterSalaryMax")
	}
	if *in.CounterSalaryMax < *in.CounterSalaryMin {
		return apperr.New(apperr.CodeInvalidCounterOffer, "counterSalaryMax must be >= counterSalaryMin")
	}
	return nil
}

// agreedHourlyRate implements the asymmetric acceptance rule: each side can
// only accept the number the other side most recently put on the table.
func agreedHourlyRate(party negotiation.Actor, neg negotiation.Negotiation, app application.Application) (*float64, error) {
	if party == negotiation.ActorProfessional {
		// The professional accepts the clinic's latest stored counter; the
		// accept payload carries no rate, so nothing the professional sends
		// can stand in for a number the clinic never put on the table.
		if neg.ClinicCounterHourlyRate != nil {
			return neg.ClinicCounterHourlyRate, nil
		}
		return nil, apperr.New(apperr.CodeNothingToAccept, "the clinic has not made a counter offer")
	}

	// The clinic accepts the professional's latest counter, or failing that
	// the rate originally proposed on the application.
	if neg.ProfessionalCounterHourlyRate != nil {
		return neg.ProfessionalCounterHourlyRate, nil
	}
	if app.ProposedRate != nil {
		return app.ProposedRate, nil
	}
	return nil, apperr.New(apperr.CodeNothingToAccept, "the professional has not proposed a rate")
}

// applyResponse folds one turn into the negotiation record.
func applyResponse(neg *negotiation.Negotiation, party negotiation.Actor, response negotiation.Status, in RespondInput, agreed *float64, now time.Time) {
	neg.Status = response
	neg.UpdatedAt = now

	resp := negotiation.PartyResponse{
		Response:    response,
		Message:     in.Message,
		RespondedAt: &now,
	}
	if party == negotiation.ActorClinic {
		neg.Clinic = resp
	} else {
		neg.Professional = resp
	}

	if response == negotiation.StatusCounterOffer {
		// Each side writes only its own hourly counter; the counterpart's
		// field in the payload is ignored.
		switch party {
		case negotiation.ActorClinic:
			if in.ClinicCounterHourlyRate != nil {
				neg.ClinicCounterHourlyRate = in.ClinicCounterHourlyRate
			}
		case negotiation.ActorProfessional:
			if in.ProfessionalCounterHourlyRate != nil {
				neg.ProfessionalCounterHourlyRate = in.ProfessionalCounterHourlyRate
			}
		}
		if in.CounterSalaryMin != nil {
			neg.CounterSalaryMin = in.CounterSalaryMin
		}
		if in.CounterSalaryMax != nil {
			neg.CounterSalaryMax = in.CounterSalaryMax
		}
	}

	if response == negotiation.StatusAccepted {
		neg.AgreedHourlyRate = agreed
	}
}
