package vault

import (
	"github.com/xraph/vault/admin"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// Re-export common types so callers rarely need the sub-packages.

// Amount is re-exported from the types package.
type Amount = types.Amount

// Principal is re-exported from the types package.
type Principal = types.Principal

// Subscription is re-exported from the subscription package.
type Subscription = subscription.Subscription

// SubscriptionID is re-exported from the subscription package.
type SubscriptionID = subscription.ID

// Status is re-exported from the subscription package.
type Status = subscription.Status

// Config is re-exported from the admin package.
type Config = admin.Config

// RecoveryReason is re-exported from the admin package.
type RecoveryReason = admin.RecoveryReason

// Re-export amount constructors.
var (
	NewAmount       = types.NewAmount
	ParseAmount     = types.ParseAmount
	MustParseAmount = types.MustParseAmount

	MaxAmount = types.MaxAmount
	MinAmount = types.MinAmount
)
