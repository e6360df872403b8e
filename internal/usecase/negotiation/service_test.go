package negotiation

import (
	"context"
	"testing"
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

type mockNegotiationRepo struct {
	byID map[uuid.UUID]negotiation.Negotiation
}

func newMockNegotiationRepo(ns ...negotiation.Negotiation) *mockNegotiationRepo {
	m := &mockNegotiationRepo{byID: map[uuid.UUID]negotiation.Negotiation{}}
	for _, n := range ns {
		m.byID[n.NegotiationID] = n
	}
	return m
}

func (m *mockNegotiationRepo) Create(_ context.Context, n negotiation.Negotiation) error {
	m.byID[n.NegotiationID] = n
	return nil
}

func (m *mockNegotiationRepo) Get(_ context.Context, applicationID, negotiationID uuid.UUID) (negotiation.Negotiation, error) {
	n, ok := m.byID[negotiationID]
	if !ok || n.ApplicationID != applicationID {
		return negotiation.Negotiation{}, negotiation.ErrNotFound
	}
	return n, nil
}

func (m *mockNegotiationRepo) ListByApplication(_ context.Context, applicationID uuid.UUID) ([]negotiation.Negotiation, error) {
	out := make([]negotiation.Negotiation, 0)
	for _, n := range m.byID {
		if n.ApplicationID == applicationID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNegotiationRepo) ListByJob(_ context.Context, jobID uuid.UUID) ([]negotiation.Negotiation, error) {
	out := make([]negotiation.Negotiation, 0)
	for _, n := range m.byID {
		if n.JobID == jobID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNegotiationRepo) Update(_ context.Context, n negotiation.Negotiation) error {
	m.byID[n.NegotiationID] = n
	return nil
}

type mockApplicationRepo struct {
	apps []application.Application
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
	return m.ListByJob(nil, jobID)
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

type mockPostingRepo struct {
	byJob map[uuid.UUID]posting.Posting
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

func (m *mockPostingRepo) ListByClinic(_ context.Context, _ uuid.UUID) ([]posting.Posting, error) {
	return nil, nil
}

func (m *mockPostingRepo) UpdateStatus(_ context.Context, p posting.Posting, _ posting.Status) error {
	m.byJob[p.JobID] = p
	return nil
}

func (m *mockPostingRepo) AppendHistory(_ context.Context, _, _ uuid.UUID, _ posting.HistoryEntry) error {
	return nil
}

func (m *mockPostingRepo) History(_ context.Context, _ uuid.UUID) ([]posting.HistoryEntry, error) {
	return nil, nil
}

func (m *mockPostingRepo) Delete(_ context.Context, _, _ uuid.UUID) error { return nil }

type mockFeed struct {
	events []stream.ApplicationEvent
}

func (m *mockFeed) PublishApplicationChange(_ context.Context, ev stream.ApplicationEvent) error {
	m.events = append(m.events, ev)
	return nil
}

// fixture wires one hourly posting, its application, and an open negotiation.
type fixture struct {
	clinicID       uuid.UUID
	professionalID uuid.UUID
	jobID          uuid.UUID
	applicationID  uuid.UUID
	negotiationID  uuid.UUID

	negotiations *mockNegotiationRepo
	apps         *mockApplicationRepo
	postings     *mockPostingRepo
	feed         *mockFeed
	svc          *Service
}

func newFixture(t *testing.T, kind posting.Kind) *fixture {
	t.Helper()

	f := &fixture{
		clinicID:       uuid.New(),
		professionalID: uuid.New(),
		jobID:          uuid.New(),
		applicationID:  uuid.New(),
		negotiationID:  uuid.New(),
	}

	listed := 40.0
	p := posting.Posting{
		ClinicID: f.clinicID,
		JobID:    f.jobID,
		Kind:     kind,
		Status:   posting.StatusOpen,
	}
	if kind.Hourly() {
		p.HourlyRate = &listed
	}

	f.postings = &mockPostingRepo{byJob: map[uuid.UUID]posting.Posting{f.jobID: p}}
	f.apps = &mockApplicationRepo{apps: []application.Application{{
		JobID:          f.jobID,
		ProfessionalID: f.professionalID,
		ApplicationID:  f.applicationID,
		Status:         application.StatusNegotiating,
		JobKind:        kind,
	}}}
	f.negotiations = newMockNegotiationRepo(negotiation.Negotiation{
		ApplicationID: f.applicationID,
		NegotiationID: f.negotiationID,
		JobID:         f.jobID,
		Status:        negotiation.StatusPending,
	})
	f.feed = &mockFeed{}
	f.svc = NewService(f.negotiations, f.apps, f.postings, f.feed, zerolog.Nop())
	return f
}

func (f *fixture) clinic() authz.Actor {
	return authz.Actor{Subject: f.clinicID, Groups: []string{authz.GroupClinic}}
}

func (f *fixture) professional() authz.Actor {
	return authz.Actor{Subject: f.professionalID, Groups: []string{authz.GroupProfessional}}
}

func (f *fixture) setNegotiation(mutate func(*negotiation.Negotiation)) {
	n := f.negotiations.byID[f.negotiationID]
	mutate(&n)
	f.negotiations.byID[f.negotiationID] = n
}

func TestRespond_ProfessionalAcceptsClinicCounter(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)
	counter := 45.0
	f.setNegotiation(func(n *negotiation.Negotiation) {
		n.Status = negotiation.StatusCounterOffer
		n.ClinicCounterHourlyRate = &counter
	})

	res, err := f.svc.Respond(context.Background(), f.professional(), f.applicationID, f.negotiationID, RespondInput{Response: "accepted"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if res.Actor != negotiation.ActorProfessional {
		t.Fatalf("expected professional actor, got %s", res.Actor)
	}
	if res.ApplicationStatus != application.StatusScheduled {
		t.Fatalf("expected scheduled, got %s", res.ApplicationStatus)
	}
	if res.AcceptedHourlyRate == nil || *res.AcceptedHourlyRate != 45.0 {
		t.Fatalf("expected agreed rate 45, got %v", res.AcceptedHourlyRate)
	}

	app := f.apps.apps[0]
	if app.Status != application.StatusScheduled {
		t.Fatalf("application not finalized, status %s", app.Status)
	}
	if app.AcceptedHourlyRate == nil || *app.AcceptedHourlyRate != 45.0 {
		t.Fatalf("acceptedHourlyRate not written, got %v", app.AcceptedHourlyRate)
	}
	if app.AcceptedRate == nil || *app.AcceptedRate != 45.0 {
		t.Fatalf("acceptedRate not written, got %v", app.AcceptedRate)
	}

	n := f.negotiations.byID[f.negotiationID]
	if n.Status != negotiation.StatusAccepted {
		t.Fatalf("negotiation status not accepted, got %s", n.Status)
	}
	if n.AgreedHourlyRate == nil || *n.AgreedHourlyRate != 45.0 {
		t.Fatalf("agreed rate not recorded on negotiation, got %v", n.AgreedHourlyRate)
	}
	if n.Professional.RespondedAt == nil || n.Professional.Response != negotiation.StatusAccepted {
		t.Fatalf("professional response not recorded: %+v", n.Professional)
	}

	if len(f.feed.events) != 1 {
		t.Fatalf("expected one change event, got %d", len(f.feed.events))
	}
	if ev := f.feed.events[0]; ev.New.AcceptedHourlyRate == nil || ev.New.AcceptedRate == nil {
		t.Fatalf("after-image must carry both rate fields: %+v", ev.New)
	}
}

func TestRespond_ClinicAcceptFallsBackToProposedRate(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)
	proposed := 38.0
	f.apps.apps[0].ProposedRate = &proposed

	res, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{Response: "accepted"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Actor != negotiation.ActorClinic {
		t.Fatalf("expected clinic actor, got %s", res.Actor)
	}
	if res.AcceptedHourlyRate == nil || *res.AcceptedHourlyRate != 38.0 {
		t.Fatalf("clinic accept should agree to the proposed rate, got %v", res.AcceptedHourlyRate)
	}
}

func TestRespond_NothingToAccept(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)

	_, err := f.svc.Respond(context.Background(), f.professional(), f.applicationID, f.negotiationID, RespondInput{Response: "accepted"})
	if !apperr.HasCode(err, apperr.CodeNothingToAccept) {
		t.Fatalf("expected NothingToAccept, got %v", err)
	}
	if f.apps.apps[0].Status != application.StatusNegotiating {
		t.Fatalf("application must be untouched, got %s", f.apps.apps[0].Status)
	}
}

func TestRespond_DeclineTerminatesApplication(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)

	res, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{
		Response: "declined",
		Message:  "rate too high for this shift",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.ApplicationStatus != application.StatusDeclined {
		t.Fatalf("expected declined, got %s", res.ApplicationStatus)
	}
	if f.apps.apps[0].Status != application.StatusDeclined {
		t.Fatalf("application not declined, got %s", f.apps.apps[0].Status)
	}
	if f.negotiations.byID[f.negotiationID].Clinic.Message != "rate too high for this shift" {
		t.Fatal("clinic message not recorded")
	}
}

func TestRespond_CounterOfferKeepsNegotiating(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)
	counter := 50.0

	res, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{
		Response:                "counter_offer",
		ClinicCounterHourlyRate: &counter,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.ApplicationStatus != application.StatusNegotiating {
		t.Fatalf("expected negotiating, got %s", res.ApplicationStatus)
	}

	n := f.negotiations.byID[f.negotiationID]
	if n.ClinicCounterHourlyRate == nil || *n.ClinicCounterHourlyRate != 50.0 {
		t.Fatalf("counter rate not recorded, got %v", n.ClinicCounterHourlyRate)
	}
	if n.Status != negotiation.StatusCounterOffer {
		t.Fatalf("expected counter_offer, got %s", n.Status)
	}
}

func TestRespond_HourlyCounterRequiresRate(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)

	_, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{Response: "counter_offer"})
	if !apperr.HasCode(err, apperr.CodeInvalidCounterOffer) {
		t.Fatalf("expected InvalidCounterOffer, got %v", err)
	}
}

func TestRespond_SalaryCounterValidation(t *testing.T) {
	f := newFixture(t, posting.KindPermanent)
	minSalary, maxSalary := 90000.0, 80000.0

	_, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{
		Response:         "counter_offer",
		CounterSalaryMin: &minSalary,
		CounterSalaryMax: &maxSalary,
	})
	if !apperr.HasCode(err, apperr.CodeInvalidCounterOffer) {
		t.Fatalf("expected InvalidCounterOffer for inverted range, got %v", err)
	}

	n := f.negotiations.byID[f.negotiationID]
	if n.Status != negotiation.StatusPending || n.CounterSalaryMin != nil {
		t.Fatalf("rejected counter must not mutate the negotiation: %+v", n)
	}

	maxSalary = 95000.0
	res, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{
		Response:         "counter_offer",
		CounterSalaryMin: &minSalary,
		CounterSalaryMax: &maxSalary,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.ApplicationStatus != application.StatusNegotiating {
		t.Fatalf("expected negotiating, got %s", res.ApplicationStatus)
	}
}

func TestRespond_SalaryAcceptCarriesNoHourlyRate(t *testing.T) {
	f := newFixture(t, posting.KindPermanent)

	res, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{Response: "accepted"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.AcceptedHourlyRate != nil {
		t.Fatalf("salary job accept must not compute an hourly rate, got %v", res.AcceptedHourlyRate)
	}
	if res.ApplicationStatus != application.StatusScheduled {
		t.Fatalf("expected scheduled, got %s", res.ApplicationStatus)
	}
}

func TestRespond_StrangerForbidden(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)
	stranger := authz.Actor{Subject: uuid.New(), Groups: []string{authz.GroupProfessional}}

	_, err := f.svc.Respond(context.Background(), stranger, f.applicationID, f.negotiationID, RespondInput{Response: "accepted"})
	if !apperr.HasCode(err, apperr.CodeForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestRespond_UnknownResponseRejected(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)

	_, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{Response: "maybe"})
	if !apperr.HasCode(err, apperr.CodeValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRespond_AcceptOnSettledApplicationConflicts(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)
	counter := 45.0
	f.setNegotiation(func(n *negotiation.Negotiation) {
		n.ClinicCounterHourlyRate = &counter
	})
	f.apps.apps[0].Status = application.StatusScheduled

	_, err := f.svc.Respond(context.Background(), f.professional(), f.applicationID, f.negotiationID, RespondInput{Response: "accepted"})
	if !apperr.HasCode(err, apperr.CodeConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestRespond_TerminalApplicationConflicts(t *testing.T) {
	cases := []struct {
		name     string
		status   application.Status
		response string
	}{
		{"decline on withdrawn", application.StatusWithdrawn, "declined"},
		{"counter on cancelled", application.StatusJobCancelled, "counter_offer"},
		{"accept on completed", application.StatusCompleted, "accepted"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, posting.KindTemporary)
			f.apps.apps[0].Status = tc.status
			counter := 45.0

			_, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{
				Response:                tc.response,
				ClinicCounterHourlyRate: &counter,
			})
			if !apperr.HasCode(err, apperr.CodeConflict) {
				t.Fatalf("expected Conflict, got %v", err)
			}
			if f.apps.apps[0].Status != tc.status {
				t.Fatalf("terminal status overwritten: %s -> %s", tc.status, f.apps.apps[0].Status)
			}
			if f.negotiations.byID[f.negotiationID].Status != negotiation.StatusPending {
				t.Fatal("negotiation must not be mutated")
			}
			if len(f.feed.events) != 0 {
				t.Fatalf("no change event expected, got %d", len(f.feed.events))
			}
		})
	}
}

func TestRespond_CounterOfferBoundToActingParty(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)
	planted := 20.0

	// A clinic counter carrying only the professional's field is rejected.
	_, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{
		Response:                      "counter_offer",
		ProfessionalCounterHourlyRate: &planted,
	})
	if !apperr.HasCode(err, apperr.CodeInvalidCounterOffer) {
		t.Fatalf("expected InvalidCounterOffer, got %v", err)
	}

	// Even alongside its own field, the counterpart's number is ignored.
	own := 35.0
	_, err = f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{
		Response:                      "counter_offer",
		ClinicCounterHourlyRate:       &own,
		ProfessionalCounterHourlyRate: &planted,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	n := f.negotiations.byID[f.negotiationID]
	if n.ProfessionalCounterHourlyRate != nil {
		t.Fatalf("clinic turn must not write the professional's counter, got %v", *n.ProfessionalCounterHourlyRate)
	}

	// With no professional counter and no proposed rate on the application,
	// the clinic has nothing of the other side's to accept.
	_, err = f.svc.Respond(context.Background(), f.clinic(), f.applicationID, f.negotiationID, RespondInput{Response: "accepted"})
	if !apperr.HasCode(err, apperr.CodeNothingToAccept) {
		t.Fatalf("expected NothingToAccept, got %v", err)
	}
}

func TestRespond_AcceptPayloadCannotSupplyRate(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)
	planted := 45.0

	_, err := f.svc.Respond(context.Background(), f.professional(), f.applicationID, f.negotiationID, RespondInput{
		Response:                "accepted",
		ClinicCounterHourlyRate: &planted,
	})
	if !apperr.HasCode(err, apperr.CodeNothingToAccept) {
		t.Fatalf("accept must only take the stored clinic counter, got %v", err)
	}
}

func TestRespond_NegotiationNotFound(t *testing.T) {
	f := newFixture(t, posting.KindTemporary)

	_, err := f.svc.Respond(context.Background(), f.clinic(), f.applicationID, uuid.New(), RespondInput{Response: "accepted"})
	if !apperr.HasCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
