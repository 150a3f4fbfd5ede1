package subscription

// transitions lists the allowed targets for each status. Self transitions
// are always allowed and are therefore not listed.
var transitions = map[Status][]Status{
	StatusActive:              {StatusPaused, StatusCancelled, StatusInsufficientBalance},
	StatusPaused:              {StatusActive, StatusCancelled},
	StatusInsufficientBalance: {StatusActive, StatusCancelled},
	StatusCancelled:           {},
}

// Statuses returns every known status in a stable order.
func Statuses() []Status {
	return []Status{StatusActive, StatusPaused, StatusCancelled, StatusInsufficientBalance}
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool { return s == StatusCancelled }

// CanTransition reports whether a subscription may move from one status to
// another.
func CanTransition(from, to Status) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from the given one,
// excluding itself.
func AllowedTransitions(from Status) []Status {
	out := make([]Status, len(transitions[from]))
	copy(out, transitions[from])
	return out
}
