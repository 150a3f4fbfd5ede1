package vault_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/subscription"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first := h.subscribe(t, false, 0)
	second := h.subscribe(t, true, 0)
	assert.Equal(t, vault.SubscriptionID(0), first)
	assert.Equal(t, vault.SubscriptionID(1), second)

	sub := h.sub(t, second)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.True(t, sub.PrepaidBalance.IsZero())
	assert.Equal(t, t0, sub.LastPaymentTimestamp)
	assert.True(t, sub.UsageEnabled)

	_, err := h.v.Create(ctx, subscriber, merchant, vault.NewAmount(0), interval, false)
	assert.ErrorIs(t, err, vault.ErrInvalidAmount)
	_, err = h.v.Create(ctx, "", merchant, amount, interval, false)
	assert.ErrorIs(t, err, vault.ErrUnauthorized)
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 0)

	err := h.v.Deposit(ctx, subID, subscriber, vault.NewAmount(999_999))
	assert.ErrorIs(t, err, vault.ErrBelowMinimumTopup)
	assert.ErrorIs(t, h.v.Deposit(ctx, subID, "bob", minTopup), vault.ErrUnauthorized)
	assert.ErrorIs(t, h.v.Deposit(ctx, 9, subscriber, minTopup), vault.ErrSubscriptionNotFound)

	require.NoError(t, h.v.Deposit(ctx, subID, subscriber, minTopup))
	assert.Equal(t, minTopup, h.sub(t, subID).PrepaidBalance)
	assert.Equal(t, minTopup, h.book.Balance(asset, custody))

	dep := h.events.last(event.TopicDeposited)
	require.NotNil(t, dep)
	assert.Equal(t, minTopup, dep.Payload.(*event.Deposited).Balance)
}

func TestDepositTransferFailureLeavesBalance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 0)

	// more than the minted supply
	err := h.v.Deposit(ctx, subID, subscriber, vault.NewAmount(2_000_000_000))
	require.Error(t, err)
	assert.True(t, h.sub(t, subID).PrepaidBalance.IsZero())
}

func TestDepositRequiresInit(t *testing.T) {
	ctx := context.Background()
	uninit := vault.New(memory.New())
	subID, err := uninit.Create(ctx, subscriber, merchant, amount, interval, false)
	require.NoError(t, err)
	assert.ErrorIs(t, uninit.Deposit(ctx, subID, subscriber, minTopup), vault.ErrNotInitialized)
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 0)

	assert.ErrorIs(t, h.v.Pause(ctx, subID, "stranger"), vault.ErrUnauthorized)

	require.NoError(t, h.v.Pause(ctx, subID, subscriber))
	assert.Equal(t, subscription.StatusPaused, h.sub(t, subID).Status)

	before := len(h.events.topics())
	require.NoError(t, h.v.Pause(ctx, subID, merchant))
	assert.Len(t, h.events.topics(), before, "self transition emits nothing")

	require.NoError(t, h.v.Resume(ctx, subID, merchant))
	assert.Equal(t, subscription.StatusActive, h.sub(t, subID).Status)

	require.NoError(t, h.v.Cancel(ctx, subID, subscriber))
	assert.Equal(t, subscription.StatusCancelled, h.sub(t, subID).Status)

	err := h.v.Resume(ctx, subID, subscriber)
	assert.ErrorIs(t, err, vault.ErrInvalidStatusTransition)
	assert.ErrorIs(t, h.v.Pause(ctx, subID, subscriber), vault.ErrInvalidStatusTransition)
	require.NoError(t, h.v.Cancel(ctx, subID, subscriber))

	assert.ErrorIs(t, h.v.Deposit(ctx, subID, subscriber, minTopup), vault.ErrNotActive)
	assert.Equal(t, subscription.StatusCancelled, h.sub(t, subID).Status)
}

func TestInsufficientBalanceCannotPause(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 0)

	h.clock.Set(t0 + interval)
	require.ErrorIs(t, h.v.ChargeInterval(ctx, adminP, subID, ""), vault.ErrInsufficientBalance)
	assert.ErrorIs(t, h.v.Pause(ctx, subID, subscriber), vault.ErrInvalidStatusTransition)
}
