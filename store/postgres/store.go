package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/vault"
	"github.com/xraph/vault/admin"
	vaultstore "github.com/xraph/vault/store"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// subscriptionCounter names the vault_counters row that hands out ids.
const subscriptionCounter = "subscription"

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("vault/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vault/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Subscription Store ====================

// NextSubscriptionID reserves an id with a single upsert. The first call
// inserts the counter row and returns 0.
func (s *Store) NextSubscriptionID(ctx context.Context) (subscription.ID, error) {
	var next int64
	err := s.pg.NewRaw(`
		INSERT INTO vault_counters (name, value) VALUES ($1, 0)
		ON CONFLICT (name) DO UPDATE SET value = vault_counters.value + 1
		RETURNING value
	`, subscriptionCounter).Scan(ctx, &next)
	if err != nil {
		return 0, fmt.Errorf("vault/postgres: next subscription id: %w", err)
	}
	return subscription.ID(next), nil
}

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	res, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vault.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID subscription.ID) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(subID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vault.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vault.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) ListByMerchant(ctx context.Context, merchant types.Principal, offset, limit int) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	q := s.pg.NewSelect(&models).
		Where("merchant = $1", merchant.String()).
		OrderExpr("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return fromSubscriptionModels(models)
}

func (s *Store) CountByMerchant(ctx context.Context, merchant types.Principal) (int, error) {
	var count int64
	err := s.pg.NewRaw(`
		SELECT COUNT(*) FROM vault_subscriptions WHERE merchant = $1
	`, merchant.String()).Scan(ctx, &count)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Store) ListBySubscriber(ctx context.Context, subscriber types.Principal, fromID subscription.ID, limit int) ([]subscription.ID, error) {
	var models []subscriptionModel
	q := s.pg.NewSelect(&models).
		Where("subscriber = $1", subscriber.String()).
		Where("id >= $2", int64(fromID)).
		OrderExpr("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	ids := make([]subscription.ID, len(models))
	for i := range models {
		ids[i] = subscription.ID(models[i].ID)
	}
	return ids, nil
}

func (s *Store) ListByStatus(ctx context.Context, status subscription.Status, fromID subscription.ID, limit int) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	q := s.pg.NewSelect(&models).
		Where("status = $1", string(status)).
		Where("id >= $2", int64(fromID)).
		OrderExpr("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return fromSubscriptionModels(models)
}

// ==================== Replay Store ====================

func (s *Store) GetReplayState(ctx context.Context, subID subscription.ID) (*subscription.ReplayState, error) {
	m := new(replayStateModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(subID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return &subscription.ReplayState{SubscriptionID: subID}, nil
		}
		return nil, err
	}
	return fromReplayStateModel(m), nil
}

// CommitCharge writes the debited subscription together with its replay
// state in one UPDATE, so a failed charge leaves both untouched.
func (s *Store) CommitCharge(ctx context.Context, sub *subscription.Subscription, r *subscription.ReplayState) error {
	m := toSubscriptionModel(sub)
	var id int64
	err := s.pg.NewRaw(`
		UPDATE vault_subscriptions
		SET prepaid_balance = $1, last_payment_timestamp = $2, status = $3, updated_at = $4,
		    last_period = $5, charged = $6, idempotency_key = $7
		WHERE id = $8
		RETURNING id
	`, m.PrepaidBalance, m.LastPaymentTimestamp, m.Status, now(),
		int64(r.LastPeriod), r.Charged, r.IdempotencyKey, m.ID).Scan(ctx, &id)
	if err != nil {
		if isNoRows(err) {
			return vault.ErrSubscriptionNotFound
		}
		return err
	}
	return nil
}

// ==================== Config Store ====================

func (s *Store) GetConfig(ctx context.Context) (*admin.Config, error) {
	m := new(configModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", configRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vault.ErrNotInitialized
		}
		return nil, err
	}
	return fromConfigModel(m)
}

func (s *Store) SaveConfig(ctx context.Context, cfg *admin.Config) error {
	m := toConfigModel(cfg)
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("asset = EXCLUDED.asset").
		Set("admin = EXCLUDED.admin").
		Set("min_topup = EXCLUDED.min_topup").
		Set("custody = EXCLUDED.custody").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Helpers ====================

func fromSubscriptionModels(models []subscriptionModel) ([]*subscription.Subscription, error) {
	result := make([]*subscription.Subscription, len(models))
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sub
	}
	return result, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
