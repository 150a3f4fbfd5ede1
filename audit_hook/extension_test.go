package audithook_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audithook "github.com/xraph/vault/audit_hook"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

type memRecorder struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (m *memRecorder) Record(_ context.Context, evt *audithook.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func TestStatusChangeActions(t *testing.T) {
	ctx := context.Background()
	cases := map[subscription.Status]string{
		subscription.StatusPaused:              audithook.ActionSubscriptionPaused,
		subscription.StatusActive:              audithook.ActionSubscriptionResumed,
		subscription.StatusCancelled:           audithook.ActionSubscriptionCancelled,
		subscription.StatusInsufficientBalance: audithook.ActionBalanceExhausted,
	}
	for to, want := range cases {
		rec := &memRecorder{}
		ext := audithook.New(rec)
		require.NoError(t, ext.OnStatusChanged(ctx, &event.StatusChanged{SubscriptionID: 3, To: to}))
		require.Len(t, rec.events, 1)
		assert.Equal(t, want, rec.events[0].Action)
		assert.Equal(t, "3", rec.events[0].ResourceID)
	}
}

func TestChargeFailedRecordsReason(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)

	require.NoError(t, ext.OnChargeFailed(context.Background(), &event.ChargeFailed{
		SubscriptionID: 1,
		Code:           1007,
		Reason:         "vault: billing period already charged",
	}))
	require.Len(t, rec.events, 1)
	got := rec.events[0]
	assert.Equal(t, audithook.OutcomeFailure, got.Outcome)
	assert.Equal(t, "vault: billing period already charged", got.Reason)
	assert.Equal(t, uint32(1007), got.Metadata["code"])
}

func TestBatchOutcome(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)
	ctx := context.Background()

	require.NoError(t, ext.OnBatchCharged(ctx, &event.BatchCharged{Total: 2, Succeeded: 1, Failed: 1}))
	require.NoError(t, ext.OnBatchCharged(ctx, &event.BatchCharged{Total: 1, Failed: 1}))
	require.NoError(t, ext.OnBatchCharged(ctx, &event.BatchCharged{Total: 1, Succeeded: 1}))

	require.Len(t, rec.events, 3)
	assert.Equal(t, audithook.OutcomePartial, rec.events[0].Outcome)
	assert.Equal(t, audithook.OutcomeFailure, rec.events[1].Outcome)
	assert.Equal(t, audithook.OutcomeSuccess, rec.events[2].Outcome)
}

func TestActionFilters(t *testing.T) {
	ctx := context.Background()
	deposit := &event.Deposited{SubscriptionID: 1, Amount: types.NewAmount(5)}
	charge := &event.Charged{SubscriptionID: 1, Kind: event.ChargeUsage}

	rec := &memRecorder{}
	ext := audithook.New(rec, audithook.WithEnabledActions(audithook.ActionUsageCharged))
	require.NoError(t, ext.OnDeposited(ctx, deposit))
	require.NoError(t, ext.OnCharged(ctx, charge))
	require.Len(t, rec.events, 1)
	assert.Equal(t, audithook.ActionUsageCharged, rec.events[0].Action)

	rec = &memRecorder{}
	ext = audithook.New(rec, audithook.WithDisabledActions(audithook.ActionSubscriptionDeposited))
	require.NoError(t, ext.OnDeposited(ctx, deposit))
	require.NoError(t, ext.OnCharged(ctx, charge))
	require.Len(t, rec.events, 1)
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	assert.NoError(t, ext.OnConfigChanged(context.Background(), event.TopicAdminRotated,
		&event.AdminRotated{Previous: "a", Next: "b"}))
}
