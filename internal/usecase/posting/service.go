package posting

import (
	"context"
	"errors"
	"time"

	"denta-link/internal/apperr"
	"denta-link/internal/domain/application"
	"denta-link/internal/domain/posting"
	"denta-link/internal/infrastructure/stream"
	"denta-link/internal/pkg/authz"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	postings posting.Repository
	apps     application.Repository
	feed     stream.Publisher
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(postings posting.Repository, apps application.Repository, feed stream.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		postings: postings,
		apps:     apps,
		feed:     feed,
		logger:   logger,
		now:      time.Now,
	}
}

type CreateInput struct {
	Kind       string
	Title      string
	HourlyRate *float64
	SalaryMin  *float64
	SalaryMax  *float64
}

func (s *Service) Create(ctx context.Context, actor authz.Actor, in CreateInput) (posting.Posting, error) {
	if err := authz.Authorize(actor, authz.ActionManagePosting, authz.Resource{ClinicID: actor.Subject}); err != nil {
		return posting.Posting{}, err
	}

	kind := posting.Kind(in.Kind)
	if !kind.Valid() {
		return posting.Posting{}, apperr.WithDetails(apperr.CodeValidation, "unknown job kind",
			[]posting.Kind{posting.KindTemporary, posting.KindMultiDayConsulting, posting.KindPermanent})
	}
	if kind.Hourly() {
		if in.HourlyRate == nil || *in.HourlyRate <= 0 {
			return posting.Posting{}, apperr.New(apperr.CodeMissingRequiredField, "hourly postings require hourlyRate")
		}
	} else {
		if in.SalaryMin == nil || in.SalaryMax == nil || *in.SalaryMin <= 0 || *in.SalaryMax < *in.SalaryMin {
			return posting.Posting{}, apperr.New(apperr.CodeValidation, "permanent postings require salaryMin <= salaryMax")
		}
	}

	now := s.now().UTC()
	p := posting.Posting{
		ClinicID:   actor.Subject,
		JobID:      uuid.New(),
		Kind:       kind,
		Title:      in.Title,
		Status:     posting.StatusOpen,
		HourlyRate: in.HourlyRate,
		SalaryMin:  in.SalaryMin,
		SalaryMax:  in.SalaryMax,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.postings.Create(ctx, p); err != nil {
		return posting.Posting{}, apperr.Wrap(apperr.CodeInternal, "create posting", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, jobID uuid.UUID) (posting.Posting, error) {
	p, err := s.postings.GetByJobID(ctx, jobID)
	if err != nil {
		return posting.Posting{}, notFoundOrInternal(err)
	}
	if err := authz.Authorize(actor, authz.ActionViewPosting, authz.Resource{ClinicID: p.ClinicID}); err != nil {
		// Lack of visibility looks identical to absence.
		return posting.Posting{}, apperr.New(apperr.CodeNotFound, "posting not found")
	}
	return p, nil
}

func (s *Service) ListByClinic(ctx context.Context, actor authz.Actor) ([]posting.Posting, error) {
	if err := authz.Authorize(actor, authz.ActionManagePosting, authz.Resource{ClinicID: actor.Subject}); err != nil {
		return nil, err
	}
	out, err := s.postings.ListByClinic(ctx, actor.Subject)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list postings", err)
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, actor authz.Actor, jobID uuid.UUID) ([]posting.HistoryEntry, error) {
	p, err := s.postings.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, notFoundOrInternal(err)
	}
	if err := authz.Authorize(actor, authz.ActionManagePosting, authz.Resource{ClinicID: p.ClinicID}); err != nil {
		return nil, apperr.New(apperr.CodeNotFound, "posting not found")
	}
	out, err := s.postings.History(ctx, jobID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load history", err)
	}
	return out, nil
}

type TransitionInput struct {
	Status                 string
	Notes                  string
	AcceptedProfessionalID *uuid.UUID
	ScheduledDate          *time.Time
	CompletionNotes        string
}

type TransitionResult struct {
	PreviousStatus posting.Status
	NewStatus      posting.Status
	UpdatedAt      time.Time
}

// Transition drives the posting state machine: validate the edge, apply the
// conditional write, append one history line, then propagate completion into
// the booked application.
func (s *Service) Transition(ctx context.Context, actor authz.Actor, jobID uuid.UUID, in TransitionInput) (TransitionResult, error) {
	p, err := s.postings.GetByJobID(ctx, jobID)
	if err != nil {
		return TransitionResult{}, notFoundOrInternal(err)
	}
	if err := authz.Authorize(actor, authz.ActionManagePosting, authz.Resource{ClinicID: p.ClinicID}); err != nil {
		return TransitionResult{}, err
	}

	target := posting.Status(in.Status)
	if !target.Valid() {
		return TransitionResult{}, apperr.WithDetails(apperr.CodeValidation, "unknown status", posting.NextStatuses(p.Status))
	}
	if !posting.CanTransition(p.Status, target) {
		return TransitionResult{}, apperr.WithDetails(apperr.CodeInvalidTransition,
			"status transition not allowed", map[string]any{
				"currentStatus": p.Status,
				"validTargets":  posting.NextStatuses(p.Status),
			})
	}
	if target == posting.StatusScheduled {
		if in.AcceptedProfessionalID == nil || *in.AcceptedProfessionalID == uuid.Nil {
			return TransitionResult{}, apperr.New(apperr.CodeMissingRequiredField, "acceptedProfessionalUserSub is required to schedule")
		}
		if in.ScheduledDate == nil || in.ScheduledDate.IsZero() {
			return TransitionResult{}, apperr.New(apperr.CodeMissingRequiredField, "scheduledDate is required to schedule")
		}
	}

	prev := p.Status
	now := s.now().UTC()

	p.Status = target
	p.UpdatedAt = now
	if target == posting.StatusScheduled {
		p.AcceptedProfessionalID = in.AcceptedProfessionalID
		p.ScheduledDate = in.ScheduledDate
	}
	if target == posting.StatusCompleted && in.CompletionNotes != "" {
		p.CompletionNotes = in.CompletionNotes
	}

	if err := s.postings.UpdateStatus(ctx, p, prev); err != nil {
		if errors.Is(err, posting.ErrStale) {
			return TransitionResult{}, apperr.New(apperr.CodeConflict, "posting changed concurrently, re-read and retry")
		}
		return TransitionResult{}, apperr.Wrap(apperr.CodeInternal, "update posting status", err)
	}

	if err := s.postings.AppendHistory(ctx, p.ClinicID, jobID, posting.HistoryEntry{
		FromStatus: prev,
		ToStatus:   target,
		ChangedBy:  actor.Subject,
		Notes:      in.Notes,
		ChangedAt:  now,
	}); err != nil {
		// The transition itself committed; a missing audit line is logged,
		// not unwound.
		s.logger.Error().Err(err).Str("job_id", jobID.String()).Msg("history append failed")
	}

	if target == posting.StatusCompleted {
		s.completeAcceptedApplication(ctx, p, now)
	}

	return TransitionResult{PreviousStatus: prev, NewStatus: target, UpdatedAt: now}, nil
}

// completeAcceptedApplication moves the booked application scheduled ->
// completed and emits the change event the bonus processor listens for.
// Best-effort: the posting transition has already committed.
func (s *Service) completeAcceptedApplication(ctx context.Context, p posting.Posting, now time.Time) {
	if p.AcceptedProfessionalID == nil {
		return
	}

	before, err := s.apps.Get(ctx, p.JobID, *p.AcceptedProfessionalID)
	if err != nil {
		if !errors.Is(err, application.ErrNotFound) {
			s.logger.Error().Err(err).Str("job_id", p.JobID.String()).Msg("load accepted application failed")
		}
		return
	}

	if err := s.apps.Complete(ctx, p.JobID, *p.AcceptedProfessionalID, now); err != nil {
		if errors.Is(err, application.ErrStale) {
			// Not in scheduled state; nothing to complete.
			return
		}
		s.logger.Error().Err(err).
			Str("job_id", p.JobID.String()).
			Str("professional_id", p.AcceptedProfessionalID.String()).
			Msg("complete application failed")
		return
	}

	after := before
	after.Status = application.StatusCompleted
	after.UpdatedAt = now
	if err := s.feed.PublishApplicationChange(ctx, stream.NewModifyEvent(before, after, now)); err != nil {
		s.logger.Error().Err(err).Str("application_id", before.ApplicationID.String()).Msg("publish completion event failed")
	}
}

func notFoundOrInternal(err error) error {
	if errors.Is(err, posting.ErrNotFound) {
		return apperr.New(apperr.CodeNotFound, "posting not found")
	}
	return apperr.Wrap(apperr.CodeInternal, "load posting", err)
}
