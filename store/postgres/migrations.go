package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Vault store.
var Migrations = migrate.NewGroup("vault")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vault_subscriptions",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_subscriptions (
    id                     BIGINT PRIMARY KEY,
    subscriber             TEXT NOT NULL,
    merchant               TEXT NOT NULL,
    amount                 TEXT NOT NULL,
    interval_seconds       BIGINT NOT NULL DEFAULT 0,
    last_payment_timestamp BIGINT NOT NULL DEFAULT 0,
    status                 TEXT NOT NULL DEFAULT 'active',
    prepaid_balance        TEXT NOT NULL DEFAULT '0',
    usage_enabled          BOOLEAN NOT NULL DEFAULT FALSE,
    last_period            BIGINT NOT NULL DEFAULT 0,
    charged                BOOLEAN NOT NULL DEFAULT FALSE,
    idempotency_key        TEXT NOT NULL DEFAULT '',
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vault_subs_merchant ON vault_subscriptions (merchant, id);
CREATE INDEX IF NOT EXISTS idx_vault_subs_subscriber ON vault_subscriptions (subscriber, id);
CREATE INDEX IF NOT EXISTS idx_vault_subs_status ON vault_subscriptions (status, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_subscriptions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_config",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_config (
    id         INT PRIMARY KEY CHECK (id = 1),
    asset      TEXT NOT NULL,
    admin      TEXT NOT NULL,
    min_topup  TEXT NOT NULL DEFAULT '0',
    custody    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_config`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_counters",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_counters (
    name  TEXT PRIMARY KEY,
    value BIGINT NOT NULL
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_counters`)
				return err
			},
		},
	)
}
