package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/vault/event"
)

// DefaultTimeout bounds a single plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once, at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onEvent               []OnEvent
	onSubscriptionCreated []OnSubscriptionCreated
	onDeposited           []OnDeposited
	onStatusChanged       []OnStatusChanged
	onCharged             []OnCharged
	onChargeFailed        []OnChargeFailed
	onBatchCharged        []OnBatchCharged
	onWithdrawn           []OnWithdrawn
	onRecovered           []OnRecovered
	onConfigChanged       []OnConfigChanged
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnEvent); ok {
		r.onEvent = append(r.onEvent, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
	}
	if v, ok := p.(OnDeposited); ok {
		r.onDeposited = append(r.onDeposited, v)
	}
	if v, ok := p.(OnStatusChanged); ok {
		r.onStatusChanged = append(r.onStatusChanged, v)
	}
	if v, ok := p.(OnCharged); ok {
		r.onCharged = append(r.onCharged, v)
	}
	if v, ok := p.(OnChargeFailed); ok {
		r.onChargeFailed = append(r.onChargeFailed, v)
	}
	if v, ok := p.(OnBatchCharged); ok {
		r.onBatchCharged = append(r.onBatchCharged, v)
	}
	if v, ok := p.(OnWithdrawn); ok {
		r.onWithdrawn = append(r.onWithdrawn, v)
	}
	if v, ok := p.(OnRecovered); ok {
		r.onRecovered = append(r.onRecovered, v)
	}
	if v, ok := p.(OnConfigChanged); ok {
		r.onConfigChanged = append(r.onConfigChanged, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnEvent", reflect.TypeOf((*OnEvent)(nil)).Elem()},
	{"OnSubscriptionCreated", reflect.TypeOf((*OnSubscriptionCreated)(nil)).Elem()},
	{"OnDeposited", reflect.TypeOf((*OnDeposited)(nil)).Elem()},
	{"OnStatusChanged", reflect.TypeOf((*OnStatusChanged)(nil)).Elem()},
	{"OnCharged", reflect.TypeOf((*OnCharged)(nil)).Elem()},
	{"OnChargeFailed", reflect.TypeOf((*OnChargeFailed)(nil)).Elem()},
	{"OnBatchCharged", reflect.TypeOf((*OnBatchCharged)(nil)).Elem()},
	{"OnWithdrawn", reflect.TypeOf((*OnWithdrawn)(nil)).Elem()},
	{"OnRecovered", reflect.TypeOf((*OnRecovered)(nil)).Elem()},
	{"OnConfigChanged", reflect.TypeOf((*OnConfigChanged)(nil)).Elem()},
}

// implementedInterfaces returns the hook names implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Emission
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, v interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnInit", func() error { return p.OnInit(ctx, v) })
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnShutdown", func() error { return p.OnShutdown(ctx) })
	}
}

// Dispatch delivers events in order. Every event goes to the OnEvent hooks
// first and then to the typed hook matching its payload.
func (r *Registry) Dispatch(ctx context.Context, events ...*event.Event) {
	for _, evt := range events {
		if evt != nil {
			r.dispatch(ctx, evt)
		}
	}
}

func (r *Registry) dispatch(ctx context.Context, evt *event.Event) {
	// Hooks run unlocked so a plugin may call back into the registry.
	r.mu.RLock()
	var (
		onEvent         = r.onEvent
		onCreated       = r.onSubscriptionCreated
		onDeposited     = r.onDeposited
		onStatusChanged = r.onStatusChanged
		onCharged       = r.onCharged
		onChargeFailed  = r.onChargeFailed
		onBatchCharged  = r.onBatchCharged
		onWithdrawn     = r.onWithdrawn
		onRecovered     = r.onRecovered
		onConfigChanged = r.onConfigChanged
	)
	r.mu.RUnlock()

	for _, p := range onEvent {
		r.call(ctx, p.Name(), "OnEvent", func() error { return p.OnEvent(ctx, evt) })
	}

	switch payload := evt.Payload.(type) {
	case *event.Created:
		for _, p := range onCreated {
			r.call(ctx, p.Name(), "OnSubscriptionCreated", func() error { return p.OnSubscriptionCreated(ctx, payload) })
		}
	case *event.Deposited:
		for _, p := range onDeposited {
			r.call(ctx, p.Name(), "OnDeposited", func() error { return p.OnDeposited(ctx, payload) })
		}
	case *event.StatusChanged:
		for _, p := range onStatusChanged {
			r.call(ctx, p.Name(), "OnStatusChanged", func() error { return p.OnStatusChanged(ctx, payload) })
		}
	case *event.Charged:
		for _, p := range onCharged {
			r.call(ctx, p.Name(), "OnCharged", func() error { return p.OnCharged(ctx, payload) })
		}
	case *event.ChargeFailed:
		for _, p := range onChargeFailed {
			r.call(ctx, p.Name(), "OnChargeFailed", func() error { return p.OnChargeFailed(ctx, payload) })
		}
	case *event.BatchCharged:
		for _, p := range onBatchCharged {
			r.call(ctx, p.Name(), "OnBatchCharged", func() error { return p.OnBatchCharged(ctx, payload) })
		}
	case *event.Withdrawn:
		for _, p := range onWithdrawn {
			r.call(ctx, p.Name(), "OnWithdrawn", func() error { return p.OnWithdrawn(ctx, payload) })
		}
	case *event.Recovered:
		for _, p := range onRecovered {
			r.call(ctx, p.Name(), "OnRecovered", func() error { return p.OnRecovered(ctx, payload) })
		}
	case *event.Initialized, *event.AdminRotated, *event.MinTopupUpdated:
		for _, p := range onConfigChanged {
			r.call(ctx, p.Name(), "OnConfigChanged", func() error { return p.OnConfigChanged(ctx, evt.Topic, payload) })
		}
	}
}

// call runs fn with the registry timeout and logs a failure.
func (r *Registry) call(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("plugin panic: %s: %v", pluginName, rec)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
