package posting

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates how a posting is paid. Temporary and multi-day
// consulting work is hourly; permanent positions carry a salary range.
type Kind string

const (
	KindTemporary          Kind = "temporary"
	KindMultiDayConsulting Kind = "multi_day_consulting"
	KindPermanent          Kind = "permanent"
)

func (k Kind) Valid() bool {
	switch k {
	case KindTemporary, KindMultiDayConsulting, KindPermanent:
		return true
	}
	return false
}

// Hourly reports whether negotiations over this kind settle on an hourly rate.
func (k Kind) Hourly() bool {
	return k == KindTemporary || k == KindMultiDayConsulting
}

type Posting struct {
	ClinicID uuid.UUID
	JobID    uuid.UUID
	Kind     Kind
	Title    string
	Status   Status

	HourlyRate *float64
	SalaryMin  *float64
	SalaryMax  *float64

	AcceptedProfessionalID *uuid.UUID
	ScheduledDate          *time.Time
	CompletionNotes        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry is one immutable line of the posting's status audit trail.
type HistoryEntry struct {
	FromStatus Status
	ToStatus   Status
	ChangedBy  uuid.UUID
	Notes      string
	ChangedAt  time.Time
}
