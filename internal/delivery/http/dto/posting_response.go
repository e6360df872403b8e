package dto

import (
	"time"

	"denta-link/internal/domain/posting"

	"github.com/google/uuid"
)

type PostingResponse struct {
	ClinicID               uuid.UUID  `json:"clinicId"`
	JobID                  uuid.UUID  `json:"jobId"`
	Kind                   string     `json:"kind"`
	Title                  string     `json:"title"`
	Status                 string     `json:"status"`
	HourlyRate             *float64   `json:"hourlyRate,omitempty"`
	SalaryMin              *float64   `json:"salaryMin,omitempty"`
	SalaryMax              *float64   `json:"salaryMax,omitempty"`
	AcceptedProfessionalID *uuid.UUID `json:"acceptedProfessionalUserSub,omitempty"`
	ScheduledDate          *time.Time `json:"scheduledDate,omitempty"`
	CompletionNotes        string     `json:"completionNotes,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

func FromPosting(p posting.Posting) PostingResponse {
	return PostingResponse{
		ClinicID:               p.ClinicID,
		JobID:                  p.JobID,
		Kind:                   string(p.Kind),
		Title:                  p.Title,
		Status:                 string(p.Status),
		HourlyRate:             p.HourlyRate,
		SalaryMin:              p.SalaryMin,
		SalaryMax:              p.SalaryMax,
		AcceptedProfessionalID: p.AcceptedProfessionalID,
		ScheduledDate:          p.ScheduledDate,
		CompletionNotes:        p.CompletionNotes,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

type TransitionResponse struct {
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CascadeResponse struct {
	AffectedApplications int    `json:"affectedApplications"`
	ApplicationHandling  string `json:"applicationHandling"`
}

type HistoryEntryResponse struct {
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ChangedBy  uuid.UUID `json:"changedBy"`
	Notes      string    `json:"notes,omitempty"`
	ChangedAt  time.Time `json:"changedAt"`
}

func FromHistory(entries []posting.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryEntryResponse{
			FromStatus: string(h.FromStatus),
			ToStatus:   string(h.ToStatus),
			ChangedBy:  h.ChangedBy,
			Notes:      h.Notes,
			ChangedAt:  h.ChangedAt,
		})
	}
	return out
}
