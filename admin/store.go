package admin

import "context"

// Store persists the singleton configuration.
type Store interface {
	// GetConfig returns the configuration or a not-found error when the
	// vault has not been initialized.
	GetConfig(ctx context.Context) (*Config, error)
	SaveConfig(ctx context.Context, cfg *Config) error
}
