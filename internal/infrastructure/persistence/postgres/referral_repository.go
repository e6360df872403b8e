package postgres

import (
	"context"
	"errors"
	"time"

	"denta-link/internal/database"
	"denta-link/internal/domain/referral"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReferralRepository struct {
	db database.DB
}

func NewReferralRepository(db database.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) GetRecord(ctx context.Context, professionalID uuid.UUID) (referral.Record, error) {
	var rec referral.Record
	row := r.db.QueryRow(ctx,
		`SELECT professional_id, referrer_id FROM referral_records WHERE professional_id = $1`,
		professionalID,
	)
	if err := row.Scan(&rec.ProfessionalID, &rec.ReferrerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return referral.Record{}, referral.ErrNotFound
		}
		return referral.Record{}, err
	}
	return rec, nil
}

// AwardBonusOnce is the dedup gate. The claim insert succeeds exactly once
// per event ID and gates the balance increment within the same statement, so
// claim and award commit or fail together: a replay after a successful award
// affects zero rows, and a failed award leaves the event unclaimed for the
// next delivery.
func (r *ReferralRepository) AwardBonusOnce(ctx context.Context, eventID string, referrerID uuid.UUID, amount float64) (bool, error) {
	affected, err := r.db.Exec(ctx,
		`WITH claim AS (
		     INSERT INTO processed_events (event_id, processed_at) VALUES ($1, $2)
		     ON CONFLICT (event_id) DO NOTHING
		     RETURNING event_id
		 )
		 INSERT INTO referral_accounts (professional_id, balance)
		 SELECT $3, $4 FROM claim
		 ON CONFLICT (professional_id) DO UPDATE
		 SET balance = COALESCE(referral_accounts.balance, 0) + EXCLUDED.balance`,
		eventID, time.Now().UTC(), referrerID, amount,
	)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *ReferralRepository) Balance(ctx context.Context, professionalID uuid.UUID) (float64, error) {
	var balance float64
	row := r.db.QueryRow(ctx,
		`SELECT balance FROM referral_accounts WHERE professional_id = $1`,
		professionalID,
	)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}
