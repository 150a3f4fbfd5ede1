// Package extension provides the Forge extension adapter for Vault.
//
// It implements the forge.Extension interface to integrate Vault
// into a Forge application with DI registration, a cron charge scheduler
// and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.vault" or "vault" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/vault"
	"github.com/xraph/vault/notify"
	"github.com/xraph/vault/scheduler"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/transfer"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "vault"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Prepaid recurring-billing subscription vault"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Vault as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	engine    *vault.Vault
	store     store.Store
	transfer  transfer.Client
	scheduler *scheduler.Scheduler
	vaultOpts []vault.Option
}

// New creates a new Vault Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Vault instance.
// This is nil until Register is called.
func (e *Extension) Engine() *vault.Vault { return e.engine }

// Scheduler returns the charge scheduler, or nil when it is disabled.
func (e *Extension) Scheduler() *scheduler.Scheduler { return e.scheduler }

// Register implements [forge.Extension]. It loads configuration,
// initializes the vault engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	e.build()

	return vessel.Provide(fapp.Container(), func() (*vault.Vault, error) {
		return e.engine, nil
	})
}

// build constructs the engine and scheduler from the resolved config.
func (e *Extension) build() {
	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = vault.New(e.store, e.buildVaultOpts()...)

	if !e.config.DisableScheduler {
		e.scheduler = scheduler.New(e.engine,
			scheduler.WithSpec(e.config.SchedulerSpec),
			scheduler.WithPageSize(e.config.SchedulerPageSize),
		)
	}
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("vault: extension not initialized")
	}

	if e.config.RedisURL != "" {
		pub, err := notify.DialRedis(ctx, e.config.RedisURL, notify.WithPrefix(e.config.RedisPrefix))
		if err != nil {
			return err
		}
		if err := e.engine.Plugins().Register(pub); err != nil {
			return fmt.Errorf("vault: register redis publisher: %w", err)
		}
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	if e.scheduler != nil {
		if err := e.scheduler.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.scheduler != nil {
		e.scheduler.Stop()
	}
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("vault: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildVaultOpts constructs vault.Option values from the resolved config.
func (e *Extension) buildVaultOpts() []vault.Option {
	opts := make([]vault.Option, 0, len(e.vaultOpts)+2)

	if e.config.PluginTimeout > 0 {
		opts = append(opts, vault.WithPluginTimeout(e.config.PluginTimeout))
	}

	if e.transfer != nil {
		opts = append(opts, vault.WithTransfer(transfer.WithBreaker(e.transfer)))
	}

	// Append any pass-through vault options.
	opts = append(opts, e.vaultOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("vault: configuration is required but not found in config files; " +
				"ensure 'extensions.vault' or 'vault' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("vault: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_scheduler", e.config.DisableScheduler),
		forge.F("scheduler_spec", e.config.SchedulerSpec),
		forge.F("scheduler_page_size", e.config.SchedulerPageSize),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("redis_enabled", e.config.RedisURL != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.vault", "vault"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("vault: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("vault: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.SchedulerSpec == "" {
		cfg.SchedulerSpec = defaults.SchedulerSpec
	}
	if cfg.SchedulerPageSize <= 0 {
		cfg.SchedulerPageSize = defaults.SchedulerPageSize
	}
	if cfg.PluginTimeout <= 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = defaults.RedisPrefix
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableScheduler {
		yamlConfig.DisableScheduler = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.SchedulerSpec == "" {
		yamlConfig.SchedulerSpec = programmaticConfig.SchedulerSpec
	}
	if yamlConfig.RedisURL == "" {
		yamlConfig.RedisURL = programmaticConfig.RedisURL
	}
	if yamlConfig.RedisPrefix == "" {
		yamlConfig.RedisPrefix = programmaticConfig.RedisPrefix
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.SchedulerPageSize == 0 {
		yamlConfig.SchedulerPageSize = programmaticConfig.SchedulerPageSize
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
