package postgres

import (
	"context"
	"errors"
	"time"

	"denta-link/internal/database"
	"denta-link/internal/domain/application"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ApplicationRepository struct {
	db database.DB
}

func NewApplicationRepository(db database.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `job_id, professional_id, application_id, status,
	proposed_rate, accepted_hourly_rate, accepted_rate, job_kind, created_at, updated_at`

func (r *ApplicationRepository) Create(ctx context.Context, a application.Application) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_applications
			(job_id, professional_id, application_id, status, proposed_rate, job_kind, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.JobID, a.ProfessionalID, a.ApplicationID, a.Status, a.ProposedRate, a.JobKind, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *ApplicationRepository) Get(ctx context.Context, jobID, professionalID uuid.UUID) (application.Application, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE job_id = $1 AND professional_id = $2`,
		jobID, professionalID,
	)
	return scanApplication(row)
}

func (r *ApplicationRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (application.Application, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE application_id = $1`,
		applicationID,
	)
	return scanApplication(row)
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]application.Application, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE job_id = $1 ORDER BY created_at`,
		jobID,
	)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func (r *ApplicationRepository) ListActiveByJob(ctx context.Context, jobID uuid.UUID) ([]application.Application, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+applicationColumns+` FROM job_applications
		 WHERE job_id = $1 AND status = ANY($2)
		 ORDER BY created_at`,
		jobID, statusStrings(application.ActiveStatuses),
	)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func (r *ApplicationRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]application.Application, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE professional_id = $1 ORDER BY created_at DESC`,
		professionalID,
	)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, jobID, professionalID uuid.UUID, status application.Status, updatedAt time.Time) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE job_applications SET status = $1, updated_at = $2
		 WHERE job_id = $3 AND professional_id = $4`,
		status, updatedAt, jobID, professionalID,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return application.ErrNotFound
	}
	return nil
}

// Finalize is the accept-time conditional write: only a pending or
// negotiating application can move to scheduled, so two concurrent accepts
// cannot both finalize the same record.
func (r *ApplicationRepository) Finalize(ctx context.Context, jobID, professionalID uuid.UUID, rate *float64, updatedAt time.Time) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE job_applications
		 SET status = $1, accepted_hourly_rate = $2, accepted_rate = $2, updated_at = $3
		 WHERE job_id = $4 AND professional_id = $5 AND status IN ($6, $7)`,
		application.StatusScheduled, rate, updatedAt,
		jobID, professionalID, application.StatusPending, application.StatusNegotiating,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return application.ErrStale
	}
	return nil
}

func (r *ApplicationRepository) Complete(ctx context.Context, jobID, professionalID uuid.UUID, updatedAt time.Time) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE job_applications SET status = $1, updated_at = $2
		 WHERE job_id = $3 AND professional_id = $4 AND status = $5`,
		application.StatusCompleted, updatedAt, jobID, professionalID, application.StatusScheduled,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return application.ErrStale
	}
	return nil
}

func statusStrings(statuses []application.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func collectApplications(rows database.Rows) ([]application.Application, error) {
	defer rows.Close()

	out := make([]application.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanApplication(row database.Row) (application.Application, error) {
	var a application.Application
	err := row.Scan(
		&a.JobID, &a.ProfessionalID, &a.ApplicationID, &a.Status,
		&a.ProposedRate, &a.AcceptedHourlyRate, &a.AcceptedRate, &a.JobKind,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return application.Application{}, application.ErrNotFound
		}
		return application.Application{}, err
	}
	return a, nil
}
