// Package vault provides a prepaid recurring-billing engine for Go
// applications.
//
// Subscribers deposit funds into custody ahead of time. Each subscription
// is debited a fixed amount once per interval, and can optionally take
// metered usage charges and merchant-initiated one-off charges. It provides:
//
//   - Interval charging guarded by billing-period replay protection and
//     caller-supplied idempotency keys
//   - Batch charging with per-id failure isolation
//   - A validated subscription state machine (Active, Paused,
//     InsufficientBalance, Cancelled)
//   - Checked 128-bit amount arithmetic that never wraps or goes negative
//   - Admin-gated configuration, rotation and stranded-funds recovery
//   - Pluggable storage (memory, PostgreSQL, SQLite, MongoDB) and plugins
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/vault"
//	    "github.com/xraph/vault/store/memory"
//	)
//
//	v := vault.New(memory.New())
//	if err := v.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Stop()
//
//	err := v.Init(ctx, "USDC", admin, vault.NewAmount(1_000_000), custody)
//
//	subID, err := v.Create(ctx, subscriber, merchant,
//	    vault.NewAmount(10_000_000), 30*24*3600, false)
//	err = v.Deposit(ctx, subID, subscriber, vault.NewAmount(30_000_000))
//
//	// once per interval, usually from the scheduler package
//	err = v.ChargeInterval(ctx, admin, subID, "invoice-2026-10")
//
// # Errors
//
// Every failure carries a stable numeric Code. Use errors.Is against the
// sentinel errors, or CodeOf to branch on the kind:
//
//	if vault.CodeOf(err) == vault.CodeInsufficientBalance {
//	    // ask the subscriber to top up
//	}
//
// # Events
//
// Operations publish events to registered plugins after they commit. A
// failing or slow plugin never changes the outcome of the operation.
//
// # TypeID
//
// Events, recoveries, withdrawals and batch runs use TypeIDs:
//
//	evt_01h2xcejqtf2nbrexx3vqjhp41  // Event ID
//	rcv_01h2xcejqtf2nbrexx3vqjhp41  // Recovery ID
//	bat_01h455vb4pex5vsknk084sn02q  // Batch ID
//
// Subscriptions use sequential integer ids assigned at creation.
package vault
