package postgres

import (
	"context"
	"errors"

	"denta-link/internal/database"
	"denta-link/internal/domain/posting"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostingRepository struct {
	db database.DB
}

func NewPostingRepository(db database.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

const postingColumns = `clinic_id, job_id, kind, title, status,
	hourly_rate, salary_min, salary_max,
	accepted_professional_id, scheduled_date, COALESCE(completion_notes, ''),
	created_at, updated_at`

func (r *PostingRepository) Create(ctx context.Context, p posting.Posting) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_postings
			(clinic_id, job_id, kind, title, status, hourly_rate, salary_min, salary_max, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ClinicID, p.JobID, p.Kind, p.Title, p.Status,
		p.HourlyRate, p.SalaryMin, p.SalaryMax, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *PostingRepository) Get(ctx context.Context, clinicID, jobID uuid.UUID) (posting.Posting, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE clinic_id = $1 AND job_id = $2`,
		clinicID, jobID,
	)
	return scanPosting(row)
}

func (r *PostingRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (posting.Posting, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE job_id = $1`,
		jobID,
	)
	return scanPosting(row)
}

func (r *PostingRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]posting.Posting, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE clinic_id = $1 ORDER BY created_at DESC`,
		clinicID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]posting.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatus is a conditional write: the row must still carry
// expectedStatus or nothing happens and ErrStale comes back.
func (r *PostingRepository) UpdateStatus(ctx context.Context, p posting.Posting, expectedStatus posting.Status) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE job_postings
		 SET status = $1,
		     accepted_professional_id = $2,
		     scheduled_date = $3,
		     completion_notes = $4,
		     updated_at = $5
		 WHERE clinic_id = $6 AND job_id = $7 AND status = $8`,
		p.Status, p.AcceptedProfessionalID, p.ScheduledDate, p.CompletionNotes, p.UpdatedAt,
		p.ClinicID, p.JobID, expectedStatus,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return posting.ErrStale
	}
	return nil
}

func (r *PostingRepository) AppendHistory(ctx context.Context, clinicID, jobID uuid.UUID, h posting.HistoryEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_posting_history (clinic_id, job_id, from_status, to_status, changed_by, notes, changed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		clinicID, jobID, h.FromStatus, h.ToStatus, h.ChangedBy, h.Notes, h.ChangedAt,
	)
	return err
}

func (r *PostingRepository) History(ctx context.Context, jobID uuid.UUID) ([]posting.HistoryEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT from_status, to_status, changed_by, COALESCE(notes, ''), changed_at
		 FROM job_posting_history
		 WHERE job_id = $1
		 ORDER BY changed_at, id`,
		jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]posting.HistoryEntry, 0)
	for rows.Next() {
		var h posting.HistoryEntry
		if err := rows.Scan(&h.FromStatus, &h.ToStatus, &h.ChangedBy, &h.Notes, &h.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PostingRepository) Delete(ctx context.Context, clinicID, jobID uuid.UUID) error {
	affected, err := r.db.Exec(ctx,
		`DELETE FROM job_postings WHERE clinic_id = $1 AND job_id = $2`,
		clinicID, jobID,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return posting.ErrNotFound
	}
	return nil
}

func scanPosting(row database.Row) (posting.Posting, error) {
	var p posting.Posting
	err := row.Scan(
		&p.ClinicID, &p.JobID, &p.Kind, &p.Title, &p.Status,
		&p.HourlyRate, &p.SalaryMin, &p.SalaryMax,
		&p.AcceptedProfessionalID, &p.ScheduledDate, &p.CompletionNotes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return posting.Posting{}, posting.ErrNotFound
		}
		return posting.Posting{}, err
	}
	return p, nil
}
