package application

import (
	"time"

	"denta-link/internal/domain/posting"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusNegotiating Status = "negotiating"
	// StatusScheduled is the accepted state: the professional is booked.
	StatusScheduled    Status = "scheduled"
	StatusDeclined     Status = "declined"
	StatusRejected     Status = "rejected"
	StatusJobCancelled Status = "job_cancelled"
	StatusCompleted    Status = "completed"
	StatusWithdrawn    Status = "withdrawn"
)

// Terminal statuses are final. The single exception is scheduled -> completed,
// which the posting completion path performs explicitly.
func (s Status) Terminal() bool {
	switch s {
	case StatusDeclined, StatusRejected, StatusJobCancelled, StatusCompleted, StatusWithdrawn:
		return true
	}
	return false
}

// ActiveStatuses is the set the cascade flags when a posting goes away.
var ActiveStatuses = []Status{StatusPending, StatusScheduled, StatusNegotiating}

type Application struct {
	// Composite key; ApplicationID is the secondary, globally unique handle.
	JobID          uuid.UUID    `json:"jobId"`
	ProfessionalID uuid.UUID    `json:"professionalId"`
	ApplicationID  uuid.UUID    `json:"applicationId"`
	Status         Status       `json:"status"`
	ProposedRate   *float64     `json:"proposedRate,omitempty"`
	JobKind        posting.Kind `json:"jobKind"`

	// The agreed rate is written under both names; some downstream consumers
	// read acceptedRate, others acceptedHourlyRate.
	AcceptedHourlyRate *float64 `json:"acceptedHourlyRate,omitempty"`
	AcceptedRate       *float64 `json:"acceptedRate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
