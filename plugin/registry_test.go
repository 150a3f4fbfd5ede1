package plugin_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/types"
)

type spy struct {
	name string

	mu      sync.Mutex
	events  []event.Topic
	charged []*event.Charged
	config  []event.Topic
}

func (s *spy) Name() string { return s.name }

func (s *spy) OnEvent(_ context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt.Topic)
	return nil
}

func (s *spy) OnCharged(_ context.Context, e *event.Charged) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charged = append(s.charged, e)
	return nil
}

func (s *spy) OnConfigChanged(_ context.Context, topic event.Topic, _ interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = append(s.config, topic)
	return nil
}

type blocker struct{ release chan struct{} }

func (b *blocker) Name() string { return "blocker" }

func (b *blocker) OnEvent(ctx context.Context, _ *event.Event) error {
	select {
	case <-b.release:
	case <-time.After(time.Second):
	}
	return nil
}

type panicker struct{}

func (panicker) Name() string { return "panicker" }

func (panicker) OnCharged(context.Context, *event.Charged) error { panic("boom") }

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := plugin.NewRegistry()

	require.NoError(t, r.Register(&spy{name: "a"}))
	require.NoError(t, r.Register(&spy{name: "b"}))
	assert.Error(t, r.Register(&spy{name: "a"}))

	assert.Equal(t, 2, r.Count())
	assert.NotNil(t, r.Get("b"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.List(), 2)
}

func TestDispatchRoutesByPayload(t *testing.T) {
	r := plugin.NewRegistry()
	s := &spy{name: "spy"}
	require.NoError(t, r.Register(s))

	r.Dispatch(context.Background(),
		event.New(event.TopicCharged, 1, &event.Charged{SubscriptionID: 3, Amount: types.NewAmount(10)}),
		nil,
		event.New(event.TopicAdminRotated, 2, &event.AdminRotated{Previous: "a", Next: "b"}),
		event.New(event.TopicDeposited, 3, &event.Deposited{SubscriptionID: 3}),
	)

	assert.Equal(t, []event.Topic{event.TopicCharged, event.TopicAdminRotated, event.TopicDeposited}, s.events)
	require.Len(t, s.charged, 1)
	assert.EqualValues(t, 3, s.charged[0].SubscriptionID)
	assert.Equal(t, []event.Topic{event.TopicAdminRotated}, s.config)
}

func TestDispatchSurvivesSlowAndPanickingPlugins(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(20 * time.Millisecond)
	b := &blocker{release: make(chan struct{})}
	defer close(b.release)
	s := &spy{name: "spy"}

	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(panicker{}))
	require.NoError(t, r.Register(s))

	start := time.Now()
	r.Dispatch(context.Background(), event.New(event.TopicCharged, 1, &event.Charged{SubscriptionID: 1}))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Len(t, s.charged, 1)
}

// registrar registers another plugin from inside its own hook.
type registrar struct {
	r    *plugin.Registry
	errs chan error
}

func (g *registrar) Name() string { return "registrar" }

func (g *registrar) OnEvent(context.Context, *event.Event) error {
	err := g.r.Register(&spy{name: "late"})
	g.errs <- err
	return err
}

func TestPluginCanRegisterDuringDispatch(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(2 * time.Second)
	g := &registrar{r: r, errs: make(chan error, 1)}
	require.NoError(t, r.Register(g))

	start := time.Now()
	r.Dispatch(context.Background(), event.New(event.TopicCharged, 1, &event.Charged{SubscriptionID: 1}))
	assert.Less(t, time.Since(start), time.Second)

	select {
	case err := <-g.errs:
		require.NoError(t, err)
	default:
		t.Fatal("registration did not complete during dispatch")
	}
	assert.Equal(t, 2, r.Count())
	assert.NotNil(t, r.Get("late"))
}
