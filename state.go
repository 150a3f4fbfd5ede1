package vault

import (
	"fmt"

	"github.com/xraph/vault/subscription"
)

// ValidateTransition fails with ErrInvalidStatusTransition unless the move
// is in the transition table. A self transition always succeeds.
func ValidateTransition(from, to Status) error {
	if !subscription.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}
	return nil
}

// AllowedTransitions returns the statuses reachable from the given one.
func AllowedTransitions(from Status) []Status {
	return subscription.AllowedTransitions(from)
}
