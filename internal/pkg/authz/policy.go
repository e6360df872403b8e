package authz

import (
	"slices"

	"denta-link/internal/apperr"

	"github.com/google/uuid"
)

const (
	GroupClinic       = "clinic"
	GroupProfessional = "professional"
)

// Actor is the authenticated caller: the token subject plus its groups.
type Actor struct {
	Subject uuid.UUID
	Groups  []string
}

func (a Actor) In(group string) bool {
	return slices.Contains(a.Groups, group)
}

type Action string

const (
	ActionManagePosting Action = "posting:manage"
	ActionViewPosting   Action = "posting:view"
	ActionApply         Action = "application:apply"
	ActionManageOwnApp  Action = "application:manage-own"
	ActionReviewApps    Action = "application:review"
	ActionRespond       Action = "negotiation:respond"
)

// Resource names the owners of whatever is being acted on. Zero UUIDs mean
// "no such party".
type Resource struct {
	ClinicID       uuid.UUID
	ProfessionalID uuid.UUID
}

// Authorize is the single policy decision point. Group checks and ownership
// checks live here and nowhere else.
func Authorize(actor Actor, action Action, res Resource) error {
	switch action {
	case ActionManagePosting:
		if actor.In(GroupClinic) && actor.Subject == res.ClinicID {
			return nil
		}
	case ActionViewPosting:
		if actor.In(GroupClinic) && actor.Subject == res.ClinicID {
			return nil
		}
		if actor.In(GroupProfessional) {
			return nil
		}
	case ActionApply:
		if actor.In(GroupProfessional) {
			return nil
		}
	case ActionManageOwnApp:
		if actor.In(GroupProfessional) && actor.Subject == res.ProfessionalID {
			return nil
		}
	case ActionReviewApps:
		if actor.In(GroupClinic) && actor.Subject == res.ClinicID {
			return nil
		}
	case ActionRespond:
		// Either party of this specific negotiation.
		if actor.Subject == res.ClinicID || actor.Subject == res.ProfessionalID {
			return nil
		}
	}
	return apperr.New(apperr.CodeForbidden, "actor is not authorized for this action")
}
