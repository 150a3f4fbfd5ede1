// Package store defines the unified persistence interface for Vault.
package store

import (
	"context"

	"github.com/xraph/vault/admin"
	"github.com/xraph/vault/subscription"
)

// Store is the unified storage interface for all Vault entities. Backends
// return vault.ErrSubscriptionNotFound and vault.ErrNotInitialized for
// missing records.
type Store interface {
	subscription.Store
	admin.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
