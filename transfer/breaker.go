package transfer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/xraph/vault/types"
)

// ErrCircuitOpen is returned while the breaker rejects transfers.
var ErrCircuitOpen = errors.New("transfer: circuit open")

// BreakerOption configures a Breaker.
type BreakerOption func(*breakerConfig)

type breakerConfig struct {
	name             string
	maxRequests      uint32
	interval         time.Duration
	timeout          time.Duration
	failureThreshold uint32
	logger           *slog.Logger
}

// WithBreakerName sets the breaker name used in logs.
func WithBreakerName(name string) BreakerOption {
	return func(c *breakerConfig) { c.name = name }
}

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n uint32) BreakerOption {
	return func(c *breakerConfig) { c.failureThreshold = n }
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(c *breakerConfig) { c.timeout = d }
}

// WithBreakerLogger sets the logger for state changes.
func WithBreakerLogger(l *slog.Logger) BreakerOption {
	return func(c *breakerConfig) { c.logger = l }
}

// Breaker guards a Client with a circuit breaker. Business rejections such
// as ErrInsufficientFunds or a cancelled context do not count as failures.
type Breaker struct {
	next Client
	cb   *gobreaker.CircuitBreaker[any]
}

// WithBreaker wraps next in a circuit breaker.
func WithBreaker(next Client, opts ...BreakerOption) *Breaker {
	cfg := breakerConfig{
		name:             "transfer",
		maxRequests:      3,
		interval:         10 * time.Second,
		timeout:          30 * time.Second,
		failureThreshold: 5,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	settings := gobreaker.Settings{
		Name:        cfg.name,
		MaxRequests: cfg.maxRequests,
		Interval:    cfg.interval,
		Timeout:     cfg.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.failureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrInsufficientFunds) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.logger.Info("transfer circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// Transfer forwards to the wrapped client unless the breaker is open.
func (b *Breaker) Transfer(ctx context.Context, asset string, from, to types.Principal, amount types.Amount) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Transfer(ctx, asset, from, to, amount)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the breaker state name.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

var _ Client = (*Breaker)(nil)
