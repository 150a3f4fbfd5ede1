// Package notify publishes vault events to external subscribers. Delivery is
// fire-and-forget: a failed publish is logged and never reaches the billing
// operation that produced the event.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/plugin"
)

// DefaultPrefix is prepended to every channel name.
const DefaultPrefix = "vault"

// RedisClient is the subset of the go-redis client used by RedisPublisher.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisPublisher is a plugin that publishes each event as JSON on the
// channel "<prefix>.<topic>", e.g. "vault.subscription.charged".
type RedisPublisher struct {
	client RedisClient
	prefix string
	owned  bool
	logger *slog.Logger
}

// Option configures a RedisPublisher.
type Option func(*RedisPublisher)

// WithPrefix sets the channel prefix.
func WithPrefix(prefix string) Option {
	return func(p *RedisPublisher) { p.prefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *RedisPublisher) { p.logger = l }
}

// NewRedisPublisher publishes through an existing client. The caller keeps
// ownership of the client.
func NewRedisPublisher(client RedisClient, opts ...Option) *RedisPublisher {
	p := &RedisPublisher{
		client: client,
		prefix: DefaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DialRedis connects to the Redis server at url (redis://host:port/db) and
// returns a publisher that closes the connection on shutdown.
func DialRedis(ctx context.Context, url string, opts ...Option) (*RedisPublisher, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("notify: parse redis url: %w", err)
	}
	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("notify: redis ping: %w", err)
	}

	p := NewRedisPublisher(client, opts...)
	p.owned = true
	return p, nil
}

// Name implements plugin.Plugin.
func (p *RedisPublisher) Name() string { return "notify-redis" }

// Channel returns the channel a topic is published on.
func (p *RedisPublisher) Channel(topic event.Topic) string {
	if p.prefix == "" {
		return string(topic)
	}
	return p.prefix + "." + string(topic)
}

// OnEvent implements plugin.OnEvent.
func (p *RedisPublisher) OnEvent(ctx context.Context, evt *event.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notify: encode %s: %w", evt.Topic, err)
	}

	channel := p.Channel(evt.Topic)
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("notify: publish %s: %w", channel, err)
	}

	p.logger.Debug("event published",
		"channel", channel,
		"event_id", evt.ID,
	)
	return nil
}

// OnShutdown implements plugin.OnShutdown.
func (p *RedisPublisher) OnShutdown(_ context.Context) error {
	if !p.owned {
		return nil
	}
	return p.client.Close()
}

var (
	_ plugin.OnEvent    = (*RedisPublisher)(nil)
	_ plugin.OnShutdown = (*RedisPublisher)(nil)
)
