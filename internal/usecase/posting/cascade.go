package posting

import (
	"context"
	"errors"
	"fmt"

	"denta-link/internal/apperr"
	"denta-link/internal/domain/application"
	"denta-link/internal/domain/posting"
	"denta-link/internal/infrastructure/stream"
	"denta-link/internal/pkg/authz"

	"github.com/google/uuid"
)

type CascadeResult struct {
	AffectedApplications int
	ApplicationHandling  string
}

// Delete removes a posting and flags its active applications as
// job_cancelled. The per-application updates are best-effort — one failure
// never aborts the batch — and always complete before the posting row is
// deleted, so a crash mid-way leaves a re-drivable state rather than a
// contradictory one. kind must match the posting's actual kind: deletion
// endpoints are kind-specific.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, kind string, jobID uuid.UUID) (CascadeResult, error) {
	p, err := s.postings.GetByJobID(ctx, jobID)
	if err != nil {
		return CascadeResult{}, notFoundOrInternal(err)
	}
	if err := authz.Authorize(actor, authz.ActionManagePosting, authz.Resource{ClinicID: p.ClinicID}); err != nil {
		return CascadeResult{}, err
	}

	k := posting.Kind(kind)
	if !k.Valid() {
		return CascadeResult{}, apperr.New(apperr.CodeValidation, "unknown job kind")
	}
	if p.Kind != k {
		return CascadeResult{}, apperr.WithDetails(apperr.CodeWrongJobType,
			"posting is not of the requested kind", map[string]any{"actualKind": p.Kind})
	}

	active, err := s.apps.ListActiveByJob(ctx, jobID)
	if err != nil {
		return CascadeResult{}, apperr.Wrap(apperr.CodeInternal, "list active applications", err)
	}

	now := s.now().UTC()
	cancelled := 0
	for _, a := range active {
		if a.ApplicationID == uuid.Nil {
			s.logger.Warn().
				Str("job_id", jobID.String()).
				Str("professional_id", a.ProfessionalID.String()).
				Msg("application without identifier skipped during cascade")
			continue
		}

		if err := s.apps.UpdateStatus(ctx, a.JobID, a.ProfessionalID, application.StatusJobCancelled, now); err != nil {
			s.logger.Error().Err(err).
				Str("application_id", a.ApplicationID.String()).
				Msg("cascade cancel failed for application")
			continue
		}
		cancelled++

		after := a
		after.Status = application.StatusJobCancelled
		after.UpdatedAt = now
		if err := s.feed.PublishApplicationChange(ctx, stream.NewModifyEvent(a, after, now)); err != nil {
			s.logger.Error().Err(err).
				Str("application_id", a.ApplicationID.String()).
				Msg("publish cascade event failed")
		}
	}

	if err := s.postings.Delete(ctx, p.ClinicID, jobID); err != nil {
		if errors.Is(err, posting.ErrNotFound) {
			// Someone else finished the deletion; the cascade already ran.
			return CascadeResult{}, apperr.New(apperr.CodeNotFound, "posting not found")
		}
		return CascadeResult{}, apperr.Wrap(apperr.CodeInternal, "delete posting", err)
	}

	return CascadeResult{
		AffectedApplications: cancelled,
		ApplicationHandling:  fmt.Sprintf("%d active application(s) marked job_cancelled", cancelled),
	}, nil
}
