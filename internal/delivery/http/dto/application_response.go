package dto

import (
	"time"

	"denta-link/internal/domain/application"

	"github.com/google/uuid"
)

type ApplicationResponse struct {
	ApplicationID      uuid.UUID `json:"applicationId"`
	JobID              uuid.UUID `json:"jobId"`
	ProfessionalID     uuid.UUID `json:"professionalId"`
	Status             string    `json:"status"`
	ProposedRate       *float64  `json:"proposedRate,omitempty"`
	AcceptedHourlyRate *float64  `json:"acceptedHourlyRate,omitempty"`
	AcceptedRate       *float64  `json:"acceptedRate,omitempty"`
	JobKind            string    `json:"jobKind"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func FromApplication(a application.Application) ApplicationResponse {
	return ApplicationResponse{
		ApplicationID:      a.ApplicationID,
		JobID:              a.JobID,
		ProfessionalID:     a.ProfessionalID,
		Status:             string(a.Status),
		ProposedRate:       a.ProposedRate,
		AcceptedHourlyRate: a.AcceptedHourlyRate,
		AcceptedRate:       a.AcceptedRate,
		JobKind:            string(a.JobKind),
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func FromApplications(apps []application.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, FromApplication(a))
	}
	return out
}

type ApplyResponse struct {
	Application ApplicationResponse  `json:"application"`
	Negotiation *NegotiationResponse `json:"negotiation,omitempty"`
}
