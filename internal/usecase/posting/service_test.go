package posting

import (
	"context"
	"testing"
	"time"

	"denta-link/internal/apperr"
	"denta-link/internal/domain/application"
	"denta-link/internal/domain/posting"
	"denta-link/internal/infrastructure/stream"
	"denta-link/internal/pkg/authz"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockPostingRepo struct {
	byJob     map[uuid.UUID]posting.Posting
	history   []posting.HistoryEntry
	appendErr error
	deleteErr error
	deleted   []uuid.UUID
}

func newMockPostingRepo(ps ...posting.Posting) *mockPostingRepo {
	m := &mockPostingRepo{byJob: map[uuid.UUID]posting.Posting{}}
	for _, p := range ps {
		m.byJob[p.JobID] = p
	}
	return m
}

func (m *mockPostingRepo) Create(_ context.Context, p posting.Posting) error {
	m.byJob[p.JobID] = p
	return nil
}

func (m *mockPostingRepo) Get(_ context.Context, clinicID, jobID uuid.UUID) (posting.Posting, error) {
	p, ok := m.byJob[jobID]
	if !ok || p.ClinicID != clinicID {
		return posting.Posting{}, posting.ErrNotFound
	}
	return p, nil
}

func (m *mockPostingRepo) GetByJobID(_ context.Context, jobID uuid.UUID) (posting.Posting, error) {
	p, ok := m.byJob[jobID]
	if !ok {
		return posting.Posting{}, posting.ErrNotFound
	}
	return p, nil
}

func (m *mockPostingRepo) ListByClinic(_ context.Context, clinicID uuid.UUID) ([]posting.Posting, error) {
	out := make([]posting.Posting, 0)
	for _, p := range m.byJob {
		if p.ClinicID == clinicID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPostingRepo) UpdateStatus(_ context.Context, p posting.Posting, expected posting.Status) error {
	cur, ok := m.byJob[p.JobID]
	if !ok {
		return posting.ErrNotFound
	}
	if cur.Status != expected {
		return posting.ErrStale
	}
	m.byJob[p.JobID] = p
	return nil
}

func (m *mockPostingRepo) AppendHistory(_ context.Context, _, _ uuid.UUID, h posting.HistoryEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.history = append(m.history, h)
	return nil
}

func (m *mockPostingRepo) History(_ context.Context, _ uuid.UUID) ([]posting.HistoryEntry, error) {
	return m.history, nil
}

func (m *mockPostingRepo) Delete(_ context.Context, _, jobID uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.byJob[jobID]; !ok {
		return posting.ErrNotFound
	}
	delete(m.byJob, jobID)
	m.deleted = append(m.deleted, jobID)
	return nil
}

type mockApplicationRepo struct {
	apps          []application.Application
	failUpdateFor map[uuid.UUID]error
}

func (m *mockApplicationRepo) find(jobID, professionalID uuid.UUID) int {
	for i, a := range m.apps {
		if a.JobID == jobID && a.ProfessionalID == professionalID {
			return i
		}
	}
	return -1
}

func (m *mockApplicationRepo) Create(_ context.Context, a application.Application) error {
	m.apps = append(m.apps, a)
	return nil
}

func (m *mockApplicationRepo) Get(_ context.Context, jobID, professionalID uuid.UUID) (application.Application, error) {
	if i := m.find(jobID, professionalID); i >= 0 {
		return m.apps[i], nil
	}
	return application.Application{}, application.ErrNotFound
}

func (m *mockApplicationRepo) GetByApplicationID(_ context.Context, applicationID uuid.UUID) (application.Application, error) {
	for _, a := range m.apps {
		if a.ApplicationID == applicationID {
			return a, nil
		}
	}
	return application.Application{}, application.ErrNotFound
}

func (m *mockApplicationRepo) ListByJob(_ context.Context, jobID uuid.UUID) ([]application.Application, error) {
	out := make([]application.Application, 0)
	for _, a := range m.apps {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockApplicationRepo) ListActiveByJob(_ context.Context, jobID uuid.UUID) ([]application.Application, error) {
	out := make([]application.Application, 0)
	for _, a := range m.apps {
		if a.JobID != jobID {
			continue
		}
		for _, s := range application.ActiveStatuses {
			if a.Status == s {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (m *mockApplicationRepo) ListByProfessional(_ context.Context, professionalID uuid.UUID) ([]application.Application, error) {
	out := make([]application.Application, 0)
	for _, a := range m.apps {
		if a.ProfessionalID == professionalID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockApplicationRepo) UpdateStatus(_ context.Context, jobID, professionalID uuid.UUID, status application.Status, updatedAt time.Time) error {
	i := m.find(jobID, professionalID)
	if i < 0 {
		return application.ErrNotFound
	}
	if err := m.failUpdateFor[m.apps[i].ApplicationID]; err != nil {
		return err
	}
	m.apps[i].Status = status
	m.apps[i].UpdatedAt = updatedAt
	return nil
}

func (m *mockApplicationRepo) Finalize(_ context.Context, jobID, professionalID uuid.UUID, rate *float64, updatedAt time.Time) error {
	i := m.find(jobID, professionalID)
	if i < 0 {
		return application.ErrNotFound
	}
	s := m.apps[i].Status
	if s != application.StatusPending && s != application.StatusNegotiating {
		return application.ErrStale
	}
	m.apps[i].Status = application.StatusScheduled
	m.apps[i].AcceptedHourlyRate = rate
	m.apps[i].AcceptedRate = rate
	m.apps[i].UpdatedAt = updatedAt
	return nil
}

func (m *mockApplicationRepo) Complete(_ context.Context, jobID, professionalID uuid.UUID, updatedAt time.Time) error {
	i := m.find(jobID, professionalID)
	if i < 0 {
		return application.ErrNotFound
	}
	if m.apps[i].Status != application.StatusScheduled {
		return application.ErrStale
	}
	m.apps[i].Status = application.StatusCompleted
	m.apps[i].UpdatedAt = updatedAt
	return nil
}

type mockFeed struct {
	events []stream.ApplicationEvent
}

func (m *mockFeed) PublishApplicationChange(_ context.Context, ev stream.ApplicationEvent) error {
	m.events = append(m.events, ev)
	return nil
}

func clinicActor(clinicID uuid.UUID) authz.Actor {
	return authz.Actor{Subject: clinicID, Groups: []string{authz.GroupClinic}}
}

func newTestService(repo *mockPostingRepo, apps *mockApplicationRepo, feed *mockFeed) *Service {
	if apps == nil {
		apps = &mockApplicationRepo{}
	}
	if feed == nil {
		feed = &mockFeed{}
	}
	return NewService(repo, apps, feed, zerolog.Nop())
}

func openPosting(clinicID uuid.UUID) posting.Posting {
	rate := 40.0
	return posting.Posting{
		ClinicID:   clinicID,
		JobID:      uuid.New(),
		Kind:       posting.KindTemporary,
		Title:      "Dental Hygienist - Saturday cover",
		Status:     posting.StatusOpen,
		HourlyRate: &rate,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
}

func TestTransition_InvalidTargetLeavesStatusUnchanged(t *testing.T) {
	clinicID := uuid.New()
	p := openPosting(clinicID)
	repo := newMockPostingRepo(p)
	svc := newTestService(repo, nil, nil)

	_, err := svc.Transition(context.Background(), clinicActor(clinicID), p.JobID, TransitionInput{Status: "open"})
	if !apperr.HasCode(err, apperr.CodeInvalidTransition) {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}

	if repo.byJob[p.JobID].Status != posting.StatusOpen {
		t.Fatalf("status must be unchanged, got %s", repo.byJob[p.JobID].Status)
	}
	if len(repo.history) != 0 {
		t.Fatalf("no history entry expected, got %d", len(repo.history))
	}
}

func TestTransition_UnknownStatusRejected(t *testing.T) {
	clinicID := uuid.New()
	p := openPosting(clinicID)
	repo := newMockPostingRepo(p)
	svc := newTestService(repo, nil, nil)

	_, err := svc.Transition(context.Background(), clinicActor(clinicID), p.JobID, TransitionInput{Status: "paused"})
	if !apperr.HasCode(err, apperr.CodeValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestTransition_ScheduledRequiresProfessionalAndDate(t *testing.T) {
	clinicID := uuid.New()
	p := openPosting(clinicID)
	repo := newMockPostingRepo(p)
	svc := newTestService(repo, nil, nil)

	_, err := svc.Transition(context.Background(), clinicActor(clinicID), p.JobID, TransitionInput{Status: "scheduled"})
	if !apperr.HasCode(err, apperr.CodeMissingRequiredField) {
		t.Fatalf("expected MissingRequiredField, got %v", err)
	}

	proID := uuid.New()
	_, err = svc.Transition(context.Background(), clinicActor(clinicID), p.JobID, TransitionInput{
		Status:                 "scheduled",
		AcceptedProfessionalID: &proID,
	})
	if !apperr.HasCode(err, apperr.CodeMissingRequiredField) {
		t.Fatalf("expected MissingRequiredField without date, got %v", err)
	}

	date := time.Now().UTC().Add(48 * time.Hour)
	res, err := svc.Transition(context.Background(), clinicActor(clinicID), p.JobID, TransitionInput{
		Status:                 "scheduled",
		AcceptedProfessionalID: &proID,
		ScheduledDate:          &date,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.PreviousStatus != posting.StatusOpen || res.NewStatus != posting.StatusScheduled {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(repo.history) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(repo.history))
	}
	if repo.history[0].FromStatus != posting.StatusOpen || repo.history[0].ToStatus != posting.StatusScheduled {
		t.Fatalf("unexpected history entry %+v", repo.history[0])
	}
}

func TestTransition_ForbiddenForNonOwner(t *testing.T) {
	p := openPosting(uuid.New())
	repo := newMockPostingRepo(p)
	svc := newTestService(repo, nil, nil)

	_, err := svc.Transition(context.Background(), clinicActor(uuid.New()), p.JobID, TransitionInput{Status: "completed"})
	if !apperr.HasCode(err, apperr.CodeForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestTransition_CompletedPropagatesToApplication(t *testing.T) {
	clinicID := uuid.New()
	proID := uuid.New()
	date := time.Now().UTC()

	p := openPosting(clinicID)
	p.Status = posting.StatusScheduled
	p.AcceptedProfessionalID = &proID
	p.ScheduledDate = &date

	apps := &mockApplicationRepo{apps: []application.Application{{
		JobID:          p.JobID,
		ProfessionalID: proID,
		ApplicationID:  uuid.New(),
		Status:         application.StatusScheduled,
		JobKind:        p.Kind,
	}}}
	feed := &mockFeed{}
	repo := newMockPostingRepo(p)
	svc := newTestService(repo, apps, feed)

	_, err := svc.Transition(context.Background(), clinicActor(clinicID), p.JobID, TransitionInput{Status: "completed"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if apps.apps[0].Status != application.StatusCompleted {
		t.Fatalf("expected application completed, got %s", apps.apps[0].Status)
	}
	if len(feed.events) != 1 {
		t.Fatalf("expected one change event, got %d", len(feed.events))
	}
	ev := feed.events[0]
	if ev.EventName != stream.EventModify || ev.New == nil || ev.New.Status != application.StatusCompleted {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Old == nil || ev.Old.Status != application.StatusScheduled {
		t.Fatalf("old image should carry the scheduled status, got %+v", ev.Old)
	}
}

func TestCreate_ValidatesKindAndRates(t *testing.T) {
	clinicID := uuid.New()
	repo := newMockPostingRepo()
	svc := newTestService(repo, nil, nil)

	_, err := svc.Create(context.Background(), clinicActor(clinicID), CreateInput{Kind: "freelance"})
	if !apperr.HasCode(err, apperr.CodeValidation) {
		t.Fatalf("expected ValidationError for unknown kind, got %v", err)
	}

	_, err = svc.Create(context.Background(), clinicActor(clinicID), CreateInput{Kind: "temporary"})
	if !apperr.HasCode(err, apperr.CodeMissingRequiredField) {
		t.Fatalf("expected MissingRequiredField for hourly posting without rate, got %v", err)
	}

	rate := 42.5
	p, err := svc.Create(context.Background(), clinicActor(clinicID), CreateInput{
		Kind:       "temporary",
		Title:      "Locum dentist",
		HourlyRate: &rate,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Status != posting.StatusOpen {
		t.Fatalf("new posting should be open, got %s", p.Status)
	}
}
