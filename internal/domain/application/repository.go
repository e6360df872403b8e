package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("application not found")

// ErrStale signals a conditional write rejected by its precondition.
var ErrStale = errors.New("application state changed concurrently")

type Repository interface {
	Create(ctx context.Context, a Application) error
	Get(ctx context.Context, jobID, professionalID uuid.UUID) (Application, error)
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (Application, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]Application, error)
	ListActiveByJob(ctx context.Context, jobID uuid.UUID) ([]Application, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Application, error)

	// UpdateStatus sets status unconditionally (cascade, reject, withdraw all
	// pre-check the current state at the usecase layer, best-effort).
	UpdateStatus(ctx context.Context, jobID, professionalID uuid.UUID, status Status, updatedAt time.Time) error

	// Finalize moves the application to scheduled and records the agreed rate
	// under both field names, conditioned on the application still being
	// acceptable (pending or negotiating). ErrStale when the precondition
	// fails.
	Finalize(ctx context.Context, jobID, professionalID uuid.UUID, rate *float64, updatedAt time.Time) error

	// Complete moves scheduled -> completed. ErrStale when not scheduled.
	Complete(ctx context.Context, jobID, professionalID uuid.UUID, updatedAt time.Time) error
}
