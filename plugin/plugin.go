// Package plugin provides an extensible plugin system for Vault.
// Plugins hook into lifecycle events after the operation that produced them
// has committed. A failing plugin never affects the operation.
package plugin

import (
	"context"

	"github.com/xraph/vault/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the vault starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, v interface{}) error
}

// OnShutdown is called when the vault stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Catch-all hook
// ──────────────────────────────────────────────────

// OnEvent receives every emitted event, before the typed hooks run.
type OnEvent interface {
	Plugin
	OnEvent(ctx context.Context, evt *event.Event) error
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated is called when a subscription is created.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, e *event.Created) error
}

// OnDeposited is called when prepaid funds are added.
type OnDeposited interface {
	Plugin
	OnDeposited(ctx context.Context, e *event.Deposited) error
}

// OnStatusChanged is called for pause, resume, cancel and insufficient
// balance moves.
type OnStatusChanged interface {
	Plugin
	OnStatusChanged(ctx context.Context, e *event.StatusChanged) error
}

// ──────────────────────────────────────────────────
// Charge hooks
// ──────────────────────────────────────────────────

// OnCharged is called after any successful debit.
type OnCharged interface {
	Plugin
	OnCharged(ctx context.Context, e *event.Charged) error
}

// OnChargeFailed is called when an interval charge is rejected.
type OnChargeFailed interface {
	Plugin
	OnChargeFailed(ctx context.Context, e *event.ChargeFailed) error
}

// OnBatchCharged is called after a batch run completes.
type OnBatchCharged interface {
	Plugin
	OnBatchCharged(ctx context.Context, e *event.BatchCharged) error
}

// ──────────────────────────────────────────────────
// Funds and admin hooks
// ──────────────────────────────────────────────────

// OnWithdrawn is called after a merchant withdrawal.
type OnWithdrawn interface {
	Plugin
	OnWithdrawn(ctx context.Context, e *event.Withdrawn) error
}

// OnRecovered is called after a stranded-funds recovery.
type OnRecovered interface {
	Plugin
	OnRecovered(ctx context.Context, e *event.Recovered) error
}

// OnConfigChanged is called for initialization, admin rotation and
// minimum top-up updates. payload is one of *event.Initialized,
// *event.AdminRotated or *event.MinTopupUpdated.
type OnConfigChanged interface {
	Plugin
	OnConfigChanged(ctx context.Context, topic event.Topic, payload interface{}) error
}
