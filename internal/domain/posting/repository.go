package posting

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("posting not found")

// ErrStale signals a conditional write whose expected-state precondition no
// longer held. It is the only ordering primitive the store offers.
var ErrStale = errors.New("posting state changed concurrently")

type Repository interface {
	Create(ctx context.Context, p Posting) error
	Get(ctx context.Context, clinicID, jobID uuid.UUID) (Posting, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (Posting, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]Posting, error)

	// UpdateStatus writes the posting's status and the transition-specific
	// fields, conditioned on the status still being expectedStatus.
	UpdateStatus(ctx context.Context, p Posting, expectedStatus Status) error

	// AppendHistory adds one audit line. There is no update or delete.
	AppendHistory(ctx context.Context, clinicID, jobID uuid.UUID, h HistoryEntry) error
	History(ctx context.Context, jobID uuid.UUID) ([]HistoryEntry, error)

	Delete(ctx context.Context, clinicID, jobID uuid.UUID) error
}
