package referral

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("referral record not found")

// Record links a professional to whoever referred them onto the platform.
type Record struct {
	ProfessionalID uuid.UUID
	ReferrerID     uuid.UUID
}

type Repository interface {
	GetRecord(ctx context.Context, professionalID uuid.UUID) (Record, error)

	// AwardBonusOnce claims the event ID and increments the referrer's balance
	// in one atomic write, creating the account row if it does not exist yet.
	// It returns false when the event was already claimed. Claim and increment
	// must commit together: a failed increment leaves the event unclaimed so a
	// redelivery can retry it.
	AwardBonusOnce(ctx context.Context, eventID string, referrerID uuid.UUID, amount float64) (bool, error)

	Balance(ctx context.Context, professionalID uuid.UUID) (float64, error)
}
