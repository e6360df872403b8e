package posting

import (
	"context"
	"errors"
	"testing"

	"denta-link/internal/apperr"
	"denta-link/internal/domain/application"
	"denta-link/internal/domain/posting"

	"github.com/google/uuid"
)

func app(jobID uuid.UUID, status application.Status) application.Application {
	return application.Application{
		JobID:          jobID,
		ProfessionalID: uuid.New(),
		ApplicationID:  uuid.New(),
		Status:         status,
		JobKind:        posting.KindTemporary,
	}
}

func TestDelete_CascadesOnlyActiveApplications(t *testing.T) {
	clinicID := uuid.New()
	p := openPosting(clinicID)

	apps := &mockApplicationRepo{apps: []application.Application{
		app(p.JobID, application.StatusPending),
		app(p.JobID, application.StatusNegotiating),
		app(p.JobID, application.StatusScheduled),
		app(p.JobID, application.StatusDeclined),
		app(p.JobID, application.StatusCompleted),
	}}
	feed := &mockFeed{}
	repo := newMockPostingRepo(p)
	svc := newTestService(repo, apps, feed)

	res, err := svc.Delete(context.Background(), clinicActor(clinicID), "temporary", p.JobID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.AffectedApplications != 3 {
		t.Fatalf("expected 3 affected applications, got %d", res.AffectedApplications)
	}

	for _, a := range apps.apps {
		switch {
		case a.Status == application.StatusDeclined, a.Status == application.StatusCompleted:
			// terminal rows untouched
		case a.Status == application.StatusJobCancelled:
		default:
			t.Fatalf("application left in unexpected status %s", a.Status)
		}
	}

	if _, ok := repo.byJob[p.JobID]; ok {
		t.Fatal("posting should be deleted")
	}
	if len(feed.events) != 3 {
		t.Fatalf("expected 3 change events, got %d", len(feed.events))
	}
}

func TestDelete_WrongKindLeavesPostingIntact(t *testing.T) {
	clinicID := uuid.New()
	p := openPosting(clinicID)
	repo := newMockPostingRepo(p)
	svc := newTestService(repo, nil, nil)

	_, err := svc.Delete(context.Background(), clinicActor(clinicID), "permanent", p.JobID)
	if !apperr.HasCode(err, apperr.CodeWrongJobType) {
		t.Fatalf("expected WrongJobType, got %v", err)
	}
	if _, ok := repo.byJob[p.JobID]; !ok {
		t.Fatal("posting must not be deleted on kind mismatch")
	}
}

func TestDelete_UnknownKindRejected(t *testing.T) {
	clinicID := uuid.New()
	p := openPosting(clinicID)
	svc := newTestService(newMockPostingRepo(p), nil, nil)

	_, err := svc.Delete(context.Background(), clinicActor(clinicID), "freelance", p.JobID)
	if !apperr.HasCode(err, apperr.CodeValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDelete_SkipsApplicationsWithoutIdentifier(t *testing.T) {
	clinicID := uuid.New()
	p := openPosting(clinicID)

	broken := app(p.JobID, application.StatusPending)
	broken.ApplicationID = uuid.Nil

	apps := &mockApplicationRepo{apps: []application.Application{
		broken,
		app(p.JobID, application.StatusScheduled),
	}}
	repo := newMockPostingRepo(p)
	svc := newTestService(repo, apps, nil)

	res, err := svc.Delete(context.Background(), clinicActor(clinicID), "temporary", p.JobID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.AffectedApplications != 1 {
		t.Fatalf("expected 1 affected application, got %d", res.AffectedApplications)
	}
	if apps.apps[0].Status != application.StatusPending {
		t.Fatalf("row without identifier must be untouched, got %s", apps.apps[0].Status)
	}
	if apps.apps[1].Status != application.StatusJobCancelled {
		t.Fatalf("expected job_cancelled, got %s", apps.apps[1].Status)
	}
}

func TestDelete_PerApplicationFailureDoesNotAbortBatch(t *testing.T) {
	clinicID := uuid.New()
	p := openPosting(clinicID)

	failing := app(p.JobID, application.StatusPending)
	apps := &mockApplicationRepo{
		apps: []application.Application{
			app(p.JobID, application.StatusPending),
			failing,
			app(p.JobID, application.StatusScheduled),
		},
		failUpdateFor: map[uuid.UUID]error{failing.ApplicationID: errors.New("write timeout")},
	}
	repo := newMockPostingRepo(p)
	svc := newTestService(repo, apps, nil)

	res, err := svc.Delete(context.Background(), clinicActor(clinicID), "temporary", p.JobID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.AffectedApplications != 2 {
		t.Fatalf("expected 2 affected applications, got %d", res.AffectedApplications)
	}
	if _, ok := repo.byJob[p.JobID]; ok {
		t.Fatal("posting deletion must still run after a per-application failure")
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(newMockPostingRepo(), nil, nil)

	_, err := svc.Delete(context.Background(), clinicActor(uuid.New()), "temporary", uuid.New())
	if !apperr.HasCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
