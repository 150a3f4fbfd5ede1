package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault"
	"github.com/xraph/vault/admin"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

func newSub(t *testing.T, s *memory.Store, subscriber, merchant types.Principal) *subscription.Subscription {
	t.Helper()
	ctx := context.Background()
	subID, err := s.NextSubscriptionID(ctx)
	require.NoError(t, err)
	sub := &subscription.Subscription{
		ID:         subID,
		Subscriber: subscriber,
		Merchant:   merchant,
		Amount:     types.NewAmount(10),
		Status:     subscription.StatusActive,
	}
	require.NoError(t, s.CreateSubscription(ctx, sub))
	return sub
}

func TestSequentialIDs(t *testing.T) {
	s := memory.New()
	a := newSub(t, s, "alice", "m1")
	b := newSub(t, s, "bob", "m1")
	assert.Equal(t, subscription.ID(0), a.ID)
	assert.Equal(t, subscription.ID(1), b.ID)
}

func TestRecordsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	sub := newSub(t, s, "alice", "m1")

	got, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	got.PrepaidBalance = types.NewAmount(99)

	again, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, again.PrepaidBalance.IsZero())
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.GetSubscription(ctx, 7)
	assert.ErrorIs(t, err, vault.ErrSubscriptionNotFound)
	assert.ErrorIs(t, s.UpdateSubscription(ctx, &subscription.Subscription{ID: 7}), vault.ErrSubscriptionNotFound)

	_, err = s.GetConfig(ctx)
	assert.ErrorIs(t, err, vault.ErrNotInitialized)
}

func TestMerchantIndex(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	for range 5 {
		newSub(t, s, "alice", "m1")
	}
	newSub(t, s, "alice", "m2")

	n, err := s.CountByMerchant(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	page, err := s.ListByMerchant(ctx, "m1", 3, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, subscription.ID(3), page[0].ID)
	assert.Equal(t, subscription.ID(4), page[1].ID)

	page, err = s.ListByMerchant(ctx, "m1", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestListBySubscriberAndStatus(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	newSub(t, s, "alice", "m1")
	newSub(t, s, "bob", "m1")
	paused := newSub(t, s, "alice", "m2")
	newSub(t, s, "alice", "m1")

	paused.Status = subscription.StatusPaused
	require.NoError(t, s.UpdateSubscription(ctx, paused))

	ids, err := s.ListBySubscriber(ctx, "alice", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []subscription.ID{2, 3}, ids)

	active, err := s.ListByStatus(ctx, subscription.StatusActive, 0, 2)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, subscription.ID(0), active[0].ID)
	assert.Equal(t, subscription.ID(1), active[1].ID)
}

func TestReplayState(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	sub := newSub(t, s, "alice", "m1")

	r, err := s.GetReplayState(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, r.Charged)
	assert.Equal(t, sub.ID, r.SubscriptionID)

	sub.PrepaidBalance = types.NewAmount(5)
	sub.LastPaymentTimestamp = 42
	require.NoError(t, s.CommitCharge(ctx, sub, &subscription.ReplayState{
		LastPeriod:     12,
		Charged:        true,
		IdempotencyKey: "k1",
	}))

	r, err = s.GetReplayState(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, r.Charged)
	assert.Equal(t, sub.ID, r.SubscriptionID)
	assert.Equal(t, uint64(12), r.LastPeriod)
	assert.Equal(t, "k1", r.IdempotencyKey)

	got, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "5", got.PrepaidBalance.String())
	assert.Equal(t, uint64(42), got.LastPaymentTimestamp)
}

func TestCommitChargeMissingSubscription(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	err := s.CommitCharge(ctx, &subscription.Subscription{ID: 9}, &subscription.ReplayState{
		SubscriptionID: 9,
		LastPeriod:     1,
		Charged:        true,
		IdempotencyKey: "k1",
	})
	assert.ErrorIs(t, err, vault.ErrSubscriptionNotFound)

	r, err := s.GetReplayState(ctx, 9)
	require.NoError(t, err)
	assert.False(t, r.Charged)
	assert.Empty(t, r.IdempotencyKey)
}

func TestConfig(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveConfig(ctx, &admin.Config{Asset: "USDC", Admin: "root"}))

	cfg, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Principal("root"), cfg.Admin)
}
