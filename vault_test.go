package vault_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/vault"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/transfer"
)

const (
	t0         = uint64(1000)
	interval   = uint64(2_592_000)
	asset      = "USDC"
	adminP     = vault.Principal("admin")
	custody    = vault.Principal("custody")
	subscriber = vault.Principal("alice")
	merchant   = vault.Principal("acme")
)

var (
	amount   = vault.NewAmount(10_000_000)
	minTopup = vault.NewAmount(1_000_000)
)

// testClock is a settable ledger clock.
type testClock struct{ now atomic.Uint64 }

func (c *testClock) Now() uint64 { return c.now.Load() }

func (c *testClock) Set(at uint64) { c.now.Store(at) }

func (c *testClock) Advance(d uint64) { c.now.Add(d) }

// recorder collects dispatched events.
type recorder struct {
	mu     sync.Mutex
	events []*event.Event
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnEvent(_ context.Context, evt *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) topics() []event.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Topic, len(r.events))
	for i, e := range r.events {
		out[i] = e.Topic
	}
	return out
}

func (r *recorder) last(topic event.Topic) *event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Topic == topic {
			return r.events[i]
		}
	}
	return nil
}

type harness struct {
	v      *vault.Vault
	clock  *testClock
	book   *transfer.Ledger
	events *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, memory.New())
}

func newHarnessWithStore(t *testing.T, s store.Store) *harness {
	t.Helper()

	h := &harness{
		clock:  &testClock{},
		book:   transfer.NewLedger(),
		events: &recorder{},
	}
	h.clock.Set(t0)
	require.NoError(t, h.book.Mint(asset, subscriber, vault.NewAmount(1_000_000_000)))

	h.v = vault.New(s,
		vault.WithClock(h.clock),
		vault.WithTransfer(h.book),
		vault.WithPlugin(h.events),
	)

	ctx := context.Background()
	require.NoError(t, h.v.Start(ctx))
	t.Cleanup(func() { _ = h.v.Stop() })

	require.NoError(t, h.v.Init(ctx, asset, adminP, minTopup, custody))
	return h
}

var errStoreDown = errors.New("store down")

// failingStore is a memory store whose subscription writes can be made to
// fail.
type failingStore struct {
	*memory.Store
	fail atomic.Bool
}

func newFailingStore() *failingStore {
	return &failingStore{Store: memory.New()}
}

func (s *failingStore) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if s.fail.Load() {
		return errStoreDown
	}
	return s.Store.UpdateSubscription(ctx, sub)
}

func (s *failingStore) CommitCharge(ctx context.Context, sub *subscription.Subscription, r *subscription.ReplayState) error {
	if s.fail.Load() {
		return errStoreDown
	}
	return s.Store.CommitCharge(ctx, sub, r)
}

// subscribe creates a subscription and funds it with deposit, if positive.
func (h *harness) subscribe(t *testing.T, usage bool, deposit int64) vault.SubscriptionID {
	t.Helper()
	ctx := context.Background()

	subID, err := h.v.Create(ctx, subscriber, merchant, amount, interval, usage)
	require.NoError(t, err)
	if deposit > 0 {
		require.NoError(t, h.v.Deposit(ctx, subID, subscriber, vault.NewAmount(deposit)))
	}
	return subID
}

func (h *harness) sub(t *testing.T, subID vault.SubscriptionID) *vault.Subscription {
	t.Helper()
	sub, err := h.v.GetSubscription(context.Background(), subID)
	require.NoError(t, err)
	return sub
}
