package posting

type Status string

const (
	StatusOpen         Status = "open"
	StatusScheduled    Status = "scheduled"
	StatusActionNeeded Status = "action_needed"
	StatusCompleted    Status = "completed"
)

// transitions is the full adjacency table for posting statuses. A completed
// posting can only be reopened.
var transitions = map[Status][]Status{
	StatusOpen:         {StatusScheduled, StatusActionNeeded, StatusCompleted},
	StatusScheduled:    {StatusActionNeeded, StatusCompleted, StatusOpen},
	StatusActionNeeded: {StatusScheduled, StatusCompleted, StatusOpen},
	StatusCompleted:    {StatusOpen},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func CanTransition(current, target Status) bool {
	for _, t := range transitions[current] {
		if t == target {
			return true
		}
	}
	return false
}

// NextStatuses returns the valid targets from current, for error payloads.
func NextStatuses(current Status) []Status {
	next := transitions[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}
