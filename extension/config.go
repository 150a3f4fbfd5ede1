package extension

import "time"

// Config holds the Vault extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vault" or "vault" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableScheduler prevents the cron charge scheduler from running.
	DisableScheduler bool `json:"disable_scheduler" mapstructure:"disable_scheduler" yaml:"disable_scheduler"`

	// SchedulerSpec is the cron expression for charge runs
	// (default: "@every 1m").
	SchedulerSpec string `json:"scheduler_spec" mapstructure:"scheduler_spec" yaml:"scheduler_spec"`

	// SchedulerPageSize is the number of subscriptions charged per batch
	// (default: 100).
	SchedulerPageSize int `json:"scheduler_page_size" mapstructure:"scheduler_page_size" yaml:"scheduler_page_size"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RedisURL, when set, publishes every event to Redis pub/sub.
	RedisURL string `json:"redis_url" mapstructure:"redis_url" yaml:"redis_url"`

	// RedisPrefix is the channel prefix for published events
	// (default: "vault").
	RedisPrefix string `json:"redis_prefix" mapstructure:"redis_prefix" yaml:"redis_prefix"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SchedulerSpec:     "@every 1m",
		SchedulerPageSize: 100,
		PluginTimeout:     5 * time.Second,
		RedisPrefix:       "vault",
	}
}
