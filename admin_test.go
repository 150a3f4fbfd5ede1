package vault_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault"
	"github.com/xraph/vault/admin"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/store/memory"
)

func TestInit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	err := h.v.Init(ctx, asset, adminP, minTopup, custody)
	assert.ErrorIs(t, err, vault.ErrAlreadyInitialized)

	got, err := h.v.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, adminP, got)

	floor, err := h.v.GetMinTopup(ctx)
	require.NoError(t, err)
	assert.Equal(t, minTopup, floor)

	assert.NotNil(t, h.events.last(event.TopicInitialized))
}

func TestUninitializedQueries(t *testing.T) {
	ctx := context.Background()
	v := vault.New(memory.New())

	_, err := v.GetAdmin(ctx)
	assert.True(t, vault.IsNotFound(err))
	_, err = v.GetMinTopup(ctx)
	assert.True(t, vault.IsNotFound(err))
	assert.ErrorIs(t, v.SetMinTopup(ctx, adminP, minTopup), vault.ErrNotInitialized)

	assert.ErrorIs(t, v.Init(ctx, asset, adminP, vault.NewAmount(-1), custody), vault.ErrInvalidAmount)
}

func TestRotateAdmin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	const next = vault.Principal("new-admin")

	assert.ErrorIs(t, h.v.RotateAdmin(ctx, "impostor", next), vault.ErrUnauthorized)
	require.NoError(t, h.v.RotateAdmin(ctx, adminP, next))

	x := vault.NewAmount(5_000_000)
	assert.ErrorIs(t, h.v.SetMinTopup(ctx, adminP, x), vault.ErrUnauthorized)
	require.NoError(t, h.v.SetMinTopup(ctx, next, x))

	got, err := h.v.GetMinTopup(ctx)
	require.NoError(t, err)
	assert.Equal(t, x, got)

	rotated := h.events.last(event.TopicAdminRotated)
	require.NotNil(t, rotated)
	assert.Equal(t, &event.AdminRotated{Previous: adminP, Next: next}, rotated.Payload)
}

func TestApplyConfigChangesArePure(t *testing.T) {
	cfg := admin.Config{Admin: adminP, MinTopup: minTopup}

	rotated, err := vault.ApplyAdminRotation(cfg, adminP, "next")
	require.NoError(t, err)
	assert.Equal(t, vault.Principal("next"), rotated.Admin)
	assert.Equal(t, adminP, cfg.Admin)

	_, err = vault.ApplyAdminRotation(cfg, "next", "other")
	assert.ErrorIs(t, err, vault.ErrUnauthorized)

	_, err = vault.ApplyMinTopup(cfg, adminP, vault.NewAmount(-1))
	assert.ErrorIs(t, err, vault.ErrInvalidAmount)

	updated, err := vault.ApplyMinTopup(cfg, adminP, vault.NewAmount(0))
	require.NoError(t, err)
	assert.True(t, updated.MinTopup.IsZero())
}

func TestRecoverStrandedFunds(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.book.Mint(asset, custody, vault.NewAmount(500)))
	subID := h.subscribe(t, false, 30_000_000)

	_, err := h.v.RecoverStrandedFunds(ctx, "impostor", "bob", vault.NewAmount(1), admin.ReasonAccidentalTransfer)
	assert.ErrorIs(t, err, vault.ErrUnauthorized)

	_, err = h.v.RecoverStrandedFunds(ctx, adminP, "bob", vault.NewAmount(0), admin.ReasonAccidentalTransfer)
	assert.ErrorIs(t, err, vault.ErrInvalidRecoveryAmount)

	_, err = h.v.RecoverStrandedFunds(ctx, adminP, "bob", vault.NewAmount(1), admin.RecoveryReason(9))
	assert.ErrorIs(t, err, vault.ErrInvalidRecoveryReason)

	rec, err := h.v.RecoverStrandedFunds(ctx, adminP, "bob", vault.NewAmount(500), admin.ReasonDeprecatedFlow)
	require.NoError(t, err)
	assert.Equal(t, admin.ReasonDeprecatedFlow, rec.Reason)
	assert.Equal(t, t0, rec.Timestamp)
	assert.Equal(t, vault.NewAmount(500), h.book.Balance(asset, "bob"))

	// subscription records are untouched
	assert.Equal(t, vault.NewAmount(30_000_000), h.sub(t, subID).PrepaidBalance)

	evt := h.events.last(event.TopicRecovered)
	require.NotNil(t, evt)
	assert.Equal(t, rec.ID, evt.Payload.(*event.Recovered).Recovery.ID)
}

func TestWithdrawMerchantFunds(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.subscribe(t, false, 30_000_000)

	assert.ErrorIs(t, h.v.WithdrawMerchantFunds(ctx, merchant, vault.NewAmount(-1)), vault.ErrUnderflow)

	require.NoError(t, h.v.WithdrawMerchantFunds(ctx, merchant, vault.NewAmount(10_000_000)))
	assert.Equal(t, vault.NewAmount(10_000_000), h.book.Balance(asset, merchant))
	assert.Equal(t, vault.NewAmount(20_000_000), h.book.Balance(asset, custody))
	assert.NotNil(t, h.events.last(event.TopicWithdrawn))
}
