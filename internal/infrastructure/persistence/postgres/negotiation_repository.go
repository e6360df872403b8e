package postgres

import (
	"context"
	"errors"

	"denta-link/internal/database"
	"denta-link/internal/domain/negotiation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type NegotiationRepository struct {
	db database.DB
}

func NewNegotiationRepository(db database.DB) *NegotiationRepository {
	return &NegotiationRepository{db: db}
}

const negotiationColumns = `application_id, negotiation_id, job_id, status,
	clinic_response, clinic_message, clinic_responded_at,
	professional_response, professional_message, professional_responded_at,
	clinic_counter_hourly_rate, professional_counter_hourly_rate,
	counter_salary_min, counter_salary_max, agreed_hourly_rate,
	created_at, updated_at`

func (r *NegotiationRepository) Create(ctx context.Context, n negotiation.Negotiation) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_negotiations
			(application_id, negotiation_id, job_id, status,
			 clinic_counter_hourly_rate, professional_counter_hourly_rate,
			 counter_salary_min, counter_salary_max,
			 created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ApplicationID, n.NegotiationID, n.JobID, n.Status,
		n.ClinicCounterHourlyRate, n.ProfessionalCounterHourlyRate,
		n.CounterSalaryMin, n.CounterSalaryMax,
		n.CreatedAt, n.UpdatedAt,
	)
	return err
}

func (r *NegotiationRepository) Get(ctx context.Context, applicationID, negotiationID uuid.UUID) (negotiation.Negotiation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+negotiationColumns+` FROM job_negotiations
		 WHERE application_id = $1 AND negotiation_id = $2`,
		applicationID, negotiationID,
	)
	return scanNegotiation(row)
}

func (r *NegotiationRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]negotiation.Negotiation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+negotiationColumns+` FROM job_negotiations
		 WHERE application_id = $1 ORDER BY created_at`,
		applicationID,
	)
	if err != nil {
		return nil, err
	}
	return collectNegotiations(rows)
}

func (r *NegotiationRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]negotiation.Negotiation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+negotiationColumns+` FROM job_negotiations
		 WHERE job_id = $1 ORDER BY created_at`,
		jobID,
	)
	if err != nil {
		return nil, err
	}
	return collectNegotiations(rows)
}

func (r *NegotiationRepository) Update(ctx context.Context, n negotiation.Negotiation) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE job_negotiations
		 SET status = $1,
		     clinic_response = $2, clinic_message = $3, clinic_responded_at = $4,
		     professional_response = $5, professional_message = $6, professional_responded_at = $7,
		     clinic_counter_hourly_rate = $8, professional_counter_hourly_rate = $9,
		     counter_salary_min = $10, counter_salary_max = $11,
		     agreed_hourly_rate = $12,
		     updated_at = $13
		 WHERE application_id = $14 AND negotiation_id = $15`,
		n.Status,
		nullStatus(n.Clinic.Response), nullString(n.Clinic.Message), n.Clinic.RespondedAt,
		nullStatus(n.Professional.Response), nullString(n.Professional.Message), n.Professional.RespondedAt,
		n.ClinicCounterHourlyRate, n.ProfessionalCounterHourlyRate,
		n.CounterSalaryMin, n.CounterSalaryMax,
		n.AgreedHourlyRate,
		n.UpdatedAt,
		n.ApplicationID, n.NegotiationID,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return negotiation.ErrNotFound
	}
	return nil
}

func nullStatus(s negotiation.Status) *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func collectNegotiations(rows database.Rows) ([]negotiation.Negotiation, error) {
	defer rows.Close()

	out := make([]negotiation.Negotiation, 0)
	for rows.Next() {
		n, err := scanNegotiation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNegotiation(row database.Row) (negotiation.Negotiation, error) {
	var n negotiation.Negotiation
	var clinicResp, clinicMsg, profResp, profMsg *string
	err := row.Scan(
		&n.ApplicationID, &n.NegotiationID, &n.JobID, &n.Status,
		&clinicResp, &clinicMsg, &n.Clinic.RespondedAt,
		&profResp, &profMsg, &n.Professional.RespondedAt,
		&n.ClinicCounterHourlyRate, &n.ProfessionalCounterHourlyRate,
		&n.CounterSalaryMin, &n.CounterSalaryMax, &n.AgreedHourlyRate,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return negotiation.Negotiation{}, negotiation.ErrNotFound
		}
		return negotiation.Negotiation{}, err
	}

	if clinicResp != nil {
		n.Clinic.Response = negotiation.Status(*clinicResp)
	}
	if clinicMsg != nil {
		n.Clinic.Message = *clinicMsg
	}
	if profResp != nil {
		n.Professional.Response = negotiation.Status(*profResp)
	}
	if profMsg != nil {
		n.Professional.Message = *profMsg
	}
	return n, nil
}
