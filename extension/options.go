package extension

import (
	"time"

	"github.com/xraph/vault"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/transfer"
)

// Option configures the Vault Forge extension.
type Option func(*Extension)

// WithStore sets the store for the vault engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithVaultOption passes a vault.Option through to the underlying engine.
func WithVaultOption(opt vault.Option) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, opt)
	}
}

// WithPlugin registers a vault plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, vault.WithPlugin(p))
	}
}

// WithTransfer sets the asset transfer client. It is wrapped in a circuit
// breaker before use.
func WithTransfer(c transfer.Client) Option {
	return func(e *Extension) {
		e.transfer = c
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDisableScheduler prevents the charge scheduler from running.
func WithDisableScheduler() Option {
	return func(e *Extension) { e.config.DisableScheduler = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithSchedulerSpec sets the cron expression for charge runs.
func WithSchedulerSpec(spec string) Option {
	return func(e *Extension) { e.config.SchedulerSpec = spec }
}

// WithSchedulerPageSize sets how many subscriptions are charged per batch.
func WithSchedulerPageSize(n int) Option {
	return func(e *Extension) { e.config.SchedulerPageSize = n }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithRedisURL publishes events to the Redis server at url.
func WithRedisURL(url string) Option {
	return func(e *Extension) { e.config.RedisURL = url }
}
