package vault_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/subscription"
)

func TestChargeInterval(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 30_000_000)
	assert.Equal(t, vault.NewAmount(30_000_000), h.sub(t, subID).PrepaidBalance)

	h.clock.Set(t0 + interval)
	require.NoError(t, h.v.ChargeInterval(ctx, adminP, subID, ""))

	sub := h.sub(t, subID)
	assert.Equal(t, vault.NewAmount(20_000_000), sub.PrepaidBalance)
	assert.Equal(t, t0+interval, sub.LastPaymentTimestamp)

	charged := h.events.last(event.TopicCharged)
	require.NotNil(t, charged)
	payload := charged.Payload.(*event.Charged)
	assert.Equal(t, event.ChargeInterval, payload.Kind)
	assert.Equal(t, (t0+interval)/interval, payload.Period)

	t.Run("same timestamp is a replay", func(t *testing.T) {
		err := h.v.ChargeInterval(ctx, adminP, subID, "")
		assert.ErrorIs(t, err, vault.ErrReplay)
		assert.Equal(t, vault.CodeReplay, vault.CodeOf(err))
		assert.Equal(t, vault.NewAmount(20_000_000), h.sub(t, subID).PrepaidBalance)

		failed := h.events.last(event.TopicChargeFailed)
		require.NotNil(t, failed)
		assert.Equal(t, uint32(vault.CodeReplay), failed.Payload.(*event.ChargeFailed).Code)
	})

	t.Run("replay ignores a fresh key", func(t *testing.T) {
		err := h.v.ChargeInterval(ctx, adminP, subID, "fresh-key")
		assert.ErrorIs(t, err, vault.ErrReplay)
	})
}

func TestChargeIntervalTooEarly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 30_000_000)

	// next period, but the interval since creation has not elapsed
	h.clock.Set(interval)
	err := h.v.ChargeInterval(ctx, adminP, subID, "")
	assert.ErrorIs(t, err, vault.ErrIntervalNotElapsed)
	assert.True(t, vault.IsRetryable(err))
	assert.Equal(t, t0, h.sub(t, subID).LastPaymentTimestamp)
}

func TestChargeIntervalIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 30_000_000)

	h.clock.Set(t0 + interval)
	require.NoError(t, h.v.ChargeInterval(ctx, adminP, subID, "inv-1"))
	require.NoError(t, h.v.ChargeInterval(ctx, adminP, subID, "inv-1"))
	assert.Equal(t, vault.NewAmount(20_000_000), h.sub(t, subID).PrepaidBalance)

	// the key survives a charge that supplies none
	h.clock.Advance(interval)
	require.NoError(t, h.v.ChargeInterval(ctx, adminP, subID, ""))
	assert.Equal(t, vault.NewAmount(10_000_000), h.sub(t, subID).PrepaidBalance)
	require.NoError(t, h.v.ChargeInterval(ctx, adminP, subID, "inv-1"))
	assert.Equal(t, vault.NewAmount(10_000_000), h.sub(t, subID).PrepaidBalance)
}

func TestChargeIntervalInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 5_000_000)

	h.clock.Set(t0 + interval)
	err := h.v.ChargeInterval(ctx, adminP, subID, "")
	assert.ErrorIs(t, err, vault.ErrInsufficientBalance)

	sub := h.sub(t, subID)
	assert.Equal(t, subscription.StatusInsufficientBalance, sub.Status)
	assert.Equal(t, vault.NewAmount(5_000_000), sub.PrepaidBalance)
	assert.Equal(t, t0, sub.LastPaymentTimestamp)
	assert.NotNil(t, h.events.last(event.TopicInsufficientBalance))

	// blocked until resumed
	assert.ErrorIs(t, h.v.ChargeInterval(ctx, adminP, subID, ""), vault.ErrNotActive)

	require.NoError(t, h.v.Deposit(ctx, subID, subscriber, vault.NewAmount(5_000_000)))
	require.NoError(t, h.v.Resume(ctx, subID, subscriber))
	require.NoError(t, h.v.ChargeInterval(ctx, adminP, subID, ""))
	assert.True(t, h.sub(t, subID).PrepaidBalance.IsZero())
}

func TestChargeIntervalRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 30_000_000)
	h.clock.Set(t0 + interval)

	assert.ErrorIs(t, h.v.ChargeInterval(ctx, merchant, subID, ""), vault.ErrUnauthorized)
	assert.ErrorIs(t, h.v.ChargeInterval(ctx, adminP, 99, ""), vault.ErrSubscriptionNotFound)
}

func TestChargeIntervalOverflow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.clock.Set(^uint64(0) - 10)

	subID, err := h.v.Create(ctx, subscriber, merchant, amount, ^uint64(0), false)
	require.NoError(t, err)
	require.NoError(t, h.v.Deposit(ctx, subID, subscriber, vault.NewAmount(30_000_000)))

	err = h.v.ChargeInterval(ctx, adminP, subID, "")
	assert.ErrorIs(t, err, vault.ErrOverflow)
	assert.True(t, vault.IsArithmetic(err))
}

func TestChargeUsage(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t)
		subID := h.subscribe(t, false, 30_000_000)
		err := h.v.ChargeUsage(ctx, adminP, subID, vault.NewAmount(1))
		assert.ErrorIs(t, err, vault.ErrUsageNotEnabled)
		assert.Equal(t, vault.NewAmount(30_000_000), h.sub(t, subID).PrepaidBalance)
	})

	t.Run("debits and drains", func(t *testing.T) {
		h := newHarness(t)
		subID := h.subscribe(t, true, 3_000_000)

		require.NoError(t, h.v.ChargeUsage(ctx, adminP, subID, vault.NewAmount(1_000_000)))
		require.NoError(t, h.v.ChargeUsage(ctx, adminP, subID, vault.NewAmount(1_000_000)))
		assert.Equal(t, vault.NewAmount(1_000_000), h.sub(t, subID).PrepaidBalance)

		err := h.v.ChargeUsage(ctx, adminP, subID, vault.NewAmount(2_000_000))
		assert.ErrorIs(t, err, vault.ErrInsufficientPrepaid)

		require.NoError(t, h.v.ChargeUsage(ctx, adminP, subID, vault.NewAmount(1_000_000)))
		sub := h.sub(t, subID)
		assert.True(t, sub.PrepaidBalance.IsZero())
		assert.Equal(t, subscription.StatusInsufficientBalance, sub.Status)

		assert.ErrorIs(t, h.v.ChargeUsage(ctx, adminP, subID, vault.NewAmount(1)), vault.ErrNotActive)
	})

	t.Run("rejects non-positive", func(t *testing.T) {
		h := newHarness(t)
		subID := h.subscribe(t, true, 3_000_000)
		assert.ErrorIs(t, h.v.ChargeUsage(ctx, adminP, subID, vault.NewAmount(0)), vault.ErrInvalidAmount)
		assert.ErrorIs(t, h.v.ChargeUsage(ctx, adminP, subID, vault.NewAmount(-5)), vault.ErrInvalidAmount)
	})
}

func TestChargeOneOff(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	subID := h.subscribe(t, false, 2_000_000)

	assert.ErrorIs(t, h.v.ChargeOneOff(ctx, "mallory", subID, vault.NewAmount(1)), vault.ErrUnauthorized)
	assert.ErrorIs(t, h.v.ChargeOneOff(ctx, merchant, subID, vault.NewAmount(0)), vault.ErrInvalidAmount)
	assert.ErrorIs(t, h.v.ChargeOneOff(ctx, merchant, subID, vault.NewAmount(3_000_000)), vault.ErrInsufficientBalance)

	require.NoError(t, h.v.Pause(ctx, subID, subscriber))
	require.NoError(t, h.v.ChargeOneOff(ctx, merchant, subID, vault.NewAmount(2_000_000)))

	// draining via one-off leaves the status alone
	sub := h.sub(t, subID)
	assert.True(t, sub.PrepaidBalance.IsZero())
	assert.Equal(t, subscription.StatusPaused, sub.Status)
	assert.NotNil(t, h.events.last(event.TopicOneOffCharged))

	require.NoError(t, h.v.Cancel(ctx, subID, merchant))
	assert.ErrorIs(t, h.v.ChargeOneOff(ctx, merchant, subID, vault.NewAmount(1)), vault.ErrNotActive)
}

func TestChargeIntervalStoreFailure(t *testing.T) {
	ctx := context.Background()
	fs := newFailingStore()
	h := newHarnessWithStore(t, fs)
	subID := h.subscribe(t, false, 30_000_000)

	h.clock.Set(t0 + interval)
	fs.fail.Store(true)
	err := h.v.ChargeInterval(ctx, adminP, subID, "k1")
	require.ErrorIs(t, err, errStoreDown)

	sub := h.sub(t, subID)
	assert.Equal(t, vault.NewAmount(30_000_000), sub.PrepaidBalance)
	assert.Equal(t, t0, sub.LastPaymentTimestamp)

	replay, err := h.v.Store().GetReplayState(ctx, subID)
	require.NoError(t, err)
	assert.False(t, replay.Charged)
	assert.Empty(t, replay.IdempotencyKey)

	// the period is still billable once the store recovers
	fs.fail.Store(false)
	require.NoError(t, h.v.ChargeInterval(ctx, adminP, subID, "k1"))
	sub = h.sub(t, subID)
	assert.Equal(t, vault.NewAmount(20_000_000), sub.PrepaidBalance)
	assert.Equal(t, t0+interval, sub.LastPaymentTimestamp)

	assert.ErrorIs(t, h.v.ChargeInterval(ctx, adminP, subID, ""), vault.ErrReplay)
}

func TestChargeIntervalStoreFailureWithoutKey(t *testing.T) {
	ctx := context.Background()
	fs := newFailingStore()
	h := newHarnessWithStore(t, fs)
	subID := h.subscribe(t, false, 30_000_000)

	h.clock.Set(t0 + interval)
	fs.fail.Store(true)
	require.Error(t, h.v.ChargeInterval(ctx, adminP, subID, ""))

	fs.fail.Store(false)
	require.NoError(t, h.v.ChargeInterval(ctx, adminP, subID, ""))
	assert.Equal(t, vault.NewAmount(20_000_000), h.sub(t, subID).PrepaidBalance)
}

func TestChargeUsageStoreFailure(t *testing.T) {
	ctx := context.Background()
	fs := newFailingStore()
	h := newHarnessWithStore(t, fs)
	subID := h.subscribe(t, true, 5_000_000)

	fs.fail.Store(true)
	require.ErrorIs(t, h.v.ChargeUsage(ctx, adminP, subID, vault.NewAmount(5_000_000)), errStoreDown)
	fs.fail.Store(false)

	sub := h.sub(t, subID)
	assert.Equal(t, vault.NewAmount(5_000_000), sub.PrepaidBalance)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Nil(t, h.events.last(event.TopicUsageCharged))
}

func TestChargeOneOffStoreFailure(t *testing.T) {
	ctx := context.Background()
	fs := newFailingStore()
	h := newHarnessWithStore(t, fs)
	subID := h.subscribe(t, false, 5_000_000)

	fs.fail.Store(true)
	require.ErrorIs(t, h.v.ChargeOneOff(ctx, merchant, subID, vault.NewAmount(1_000_000)), errStoreDown)
	fs.fail.Store(false)

	assert.Equal(t, vault.NewAmount(5_000_000), h.sub(t, subID).PrepaidBalance)
	assert.Nil(t, h.events.last(event.TopicOneOffCharged))

	replay, err := h.v.Store().GetReplayState(ctx, subID)
	require.NoError(t, err)
	assert.False(t, replay.Charged)
}
