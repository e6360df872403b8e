package negotiation

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending      Status = "pending"
	StatusAccepted     Status = "accepted"
	StatusDeclined     Status = "declined"
	StatusCounterOffer Status = "counter_offer"
)

func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusAccepted, StatusDeclined, StatusCounterOffer:
		return Status(raw), true
	}
	return "", false
}

// Actor is which side of the table a response comes from.
type Actor string

const (
	ActorClinic       Actor = "clinic"
	ActorProfessional Actor = "professional"
)

// PartyResponse holds one side's latest response to the negotiation.
type PartyResponse struct {
	Response    Status
	Message     string
	RespondedAt *time.Time
}

// Negotiation is the counter-offer exchange for one application. Exactly one
// of the hourly pair or the salary pair is in play, fixed by the posting's
// kind when the negotiation was opened. Records are never deleted.
type Negotiation struct {
	ApplicationID uuid.UUID
	NegotiationID uuid.UUID
	JobID         uuid.UUID
	Status        Status

	Clinic       PartyResponse
	Professional PartyResponse

	ClinicCounterHourlyRate       *float64
	ProfessionalCounterHourlyRate *float64
	CounterSalaryMin              *float64
	CounterSalaryMax              *float64

	AgreedHourlyRate *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}
