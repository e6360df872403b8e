package dto

import (
	"time"

	"denta-link/internal/domain/negotiation"

	"github.com/google/uuid"
)

type PartyResponseBody struct {
	Response    string     `json:"response,omitempty"`
	Message     string     `json:"message,omitempty"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

type NegotiationResponse struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	NegotiationID uuid.UUID `json:"negotiationId"`
	JobID         uuid.UUID `json:"jobId"`
	Status        string    `json:"negotiationStatus"`

	Clinic       PartyResponseBody `json:"clinic"`
	Professional PartyResponseBody `json:"professional"`

	ClinicCounterHourlyRate       *float64 `json:"clinicCounterHourlyRate,omitempty"`
	ProfessionalCounterHourlyRate *float64 `json:"professionalCounterHourlyRate,omitempty"`
	CounterSalaryMin              *float64 `json:"counterSalaryMin,omitempty"`
	CounterSalaryMax              *float64 `json:"counterSalaryMax,omitempty"`
	AgreedHourlyRate              *float64 `json:"agreedHourlyRate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func FromNegotiation(n negotiation.Negotiation) NegotiationResponse {
	return NegotiationResponse{
		ApplicationID:                 n.ApplicationID,
		NegotiationID:                 n.NegotiationID,
		JobID:                         n.JobID,
		Status:                        string(n.Status),
		Clinic:                        fromParty(n.Clinic),
		Professional:                  fromParty(n.Professional),
		ClinicCounterHourlyRate:       n.ClinicCounterHourlyRate,
		ProfessionalCounterHourlyRate: n.ProfessionalCounterHourlyRate,
		CounterSalaryMin:              n.CounterSalaryMin,
		CounterSalaryMax:              n.CounterSalaryMax,
		AgreedHourlyRate:              n.AgreedHourlyRate,
		CreatedAt:                     n.CreatedAt,
		UpdatedAt:                     n.UpdatedAt,
	}
}

func FromNegotiations(items []negotiation.Negotiation) []NegotiationResponse {
	out := make([]NegotiationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, FromNegotiation(n))
	}
	return out
}

func fromParty(p negotiation.PartyResponse) PartyResponseBody {
	return PartyResponseBody{
		Response:    string(p.Response),
		Message:     p.Message,
		RespondedAt: p.RespondedAt,
	}
}

type RespondResponse struct {
	Actor              string   `json:"actor"`
	Response           string   `json:"response"`
	ApplicationStatus  string   `json:"applicationStatus"`
	AcceptedHourlyRate *float64 `json:"acceptedHourlyRate,omitempty"`
}
