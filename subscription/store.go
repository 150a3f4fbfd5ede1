package subscription

import (
	"context"

	"github.com/xraph/vault/types"
)

// Store persists subscriptions, their replay state and the merchant index.
type Store interface {
	// NextSubscriptionID reserves and returns the next sequential id.
	NextSubscriptionID(ctx context.Context) (ID, error)
	// CreateSubscription stores a new subscription and appends it to its
	// merchant's index.
	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, subID ID) (*Subscription, error)
	UpdateSubscription(ctx context.Context, s *Subscription) error

	// ListByMerchant returns the merchant's subscriptions in insertion order.
	ListByMerchant(ctx context.Context, merchant types.Principal, offset, limit int) ([]*Subscription, error)
	CountByMerchant(ctx context.Context, merchant types.Principal) (int, error)
	// ListBySubscriber returns ids >= fromID owned by subscriber, ascending.
	ListBySubscriber(ctx context.Context, subscriber types.Principal, fromID ID, limit int) ([]ID, error)
	// ListByStatus returns subscriptions with ids >= fromID in the given
	// status, ascending.
	ListByStatus(ctx context.Context, status Status, fromID ID, limit int) ([]*Subscription, error)

	// GetReplayState returns the stored replay state, or a zero state with
	// Charged=false when none exists.
	GetReplayState(ctx context.Context, subID ID) (*ReplayState, error)
	// CommitCharge atomically persists a charged subscription and its new
	// replay state. Either both writes land or neither does.
	CommitCharge(ctx context.Context, s *Subscription, r *ReplayState) error
}
