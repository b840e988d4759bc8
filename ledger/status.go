package ledger

// transitions lists the statuses reachable from each status.
// paid and partially_paid are set by payment recording only.
var transitions = map[Status][]Status{
	StatusDraft:         {StatusIssued, StatusCancelled},
	StatusIssued:        {StatusPartiallyPaid, StatusPaid, StatusCancelled},
	StatusPartiallyPaid: {StatusPartiallyPaid, StatusPaid, StatusCancelled},
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusPartiallyPaid, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Deletable reports whether an aggregate in status s may be deleted.
func (s Status) Deletable() bool {
	return s == StatusDraft
}
