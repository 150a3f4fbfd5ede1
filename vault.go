package vault

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/transfer"
	"github.com/xraph/vault/types"
)

// Vault is the prepaid subscription engine. Every mutating operation runs
// under a single lock so that each one is atomic with respect to the others;
// events are dispatched to plugins after the lock is released.
type Vault struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	clock    Clock
	auth     Authorizer
	transfer transfer.Client

	mu sync.Mutex
}

// Clock supplies the current ledger time in unix seconds.
type Clock interface {
	Now() uint64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() uint64

// Now calls f.
func (f ClockFunc) Now() uint64 { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(func() uint64 {
	return uint64(time.Now().Unix()) //nolint:gosec // unix time is positive
})

// Authorizer checks that a principal has signed the current call.
type Authorizer interface {
	Authorize(ctx context.Context, p Principal) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, p Principal) error

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, p Principal) error { return f(ctx, p) }

// TrustCaller accepts every non-empty principal. Use it when the transport
// has already authenticated the caller.
var TrustCaller Authorizer = AuthorizerFunc(func(_ context.Context, p Principal) error {
	if p.IsZero() {
		return ErrUnauthorized
	}
	return nil
})

// New creates a Vault backed by the given store.
func New(s store.Store, opts ...Option) *Vault {
	v := &Vault{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		clock:    SystemClock,
		auth:     TrustCaller,
		transfer: transfer.Nop,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Option configures a Vault instance.
type Option func(*Vault)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
		v.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(v *Vault) {
		_ = v.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(v *Vault) {
		v.plugins.WithTimeout(d)
	}
}

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(v *Vault) {
		v.clock = c
	}
}

// WithAuthorizer sets the signature check applied to callers.
func WithAuthorizer(a Authorizer) Option {
	return func(v *Vault) {
		v.auth = a
	}
}

// WithTransfer sets the client that moves the settlement asset.
func WithTransfer(c transfer.Client) Option {
	return func(v *Vault) {
		v.transfer = c
	}
}

// Start migrates the store and initializes plugins.
func (v *Vault) Start(ctx context.Context) error {
	if err := v.store.Migrate(ctx); err != nil {
		return err
	}

	v.plugins.EmitInit(ctx, v)

	v.logger.Info("vault started",
		"plugins", v.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (v *Vault) Stop() error {
	ctx := context.Background()
	v.plugins.EmitShutdown(ctx)

	return v.store.Close()
}

// Store returns the underlying store.
func (v *Vault) Store() store.Store { return v.store }

// Plugins returns the plugin registry.
func (v *Vault) Plugins() *plugin.Registry { return v.plugins }

// Now returns the vault's current time.
func (v *Vault) Now() uint64 { return v.clock.Now() }

// exec runs fn under the operation lock and dispatches the events it
// returns once the lock is released. Events are flushed even when fn fails
// so that state persisted before the failure is still announced.
func (v *Vault) exec(ctx context.Context, fn func(now uint64) ([]*event.Event, error)) error {
	v.mu.Lock()
	now := v.clock.Now()
	events, err := fn(now)
	v.mu.Unlock()

	v.plugins.Dispatch(ctx, events...)
	return err
}

func (v *Vault) authorize(ctx context.Context, p Principal) error {
	if err := v.auth.Authorize(ctx, p); err != nil {
		v.logger.Debug("authorization rejected", "principal", p, "error", err)
		return ErrUnauthorized
	}
	return nil
}

func stamp(at uint64) time.Time { return types.FromUnix(at) }
