package negotiation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("negotiation not found")

type Repository interface {
	Create(ctx context.Context, n Negotiation) error
	Get(ctx context.Context, applicationID, negotiationID uuid.UUID) (Negotiation, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]Negotiation, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]Negotiation, error)

	// Update rewrites the mutable surface: status, party responses, counters
	// and the agreed rate. Identity and creation fields never change.
	Update(ctx context.Context, n Negotiation) error
}
