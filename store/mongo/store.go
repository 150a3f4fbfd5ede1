package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/vault"
	"github.com/xraph/vault/admin"
	vaultstore "github.com/xraph/vault/store"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// Collection name constants.
const (
	colSubscriptions = "vault_subscriptions"
	colConfig        = "vault_config"
	colCounters      = "vault_counters"
)

// subscriptionCounter is the _id of the counter document that hands out
// subscription ids.
const subscriptionCounter = "subscription"

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all vault collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vault/mongo: migrate %s indexes: %w", col, err)
		}
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

// NextSubscriptionID increments the counter document atomically. The
// counter holds the number of ids handed out, so the first id is 0.
func (s *Store) NextSubscriptionID(ctx context.Context) (subscription.ID, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counterModel
	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": subscriptionCounter},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("vault/mongo: next subscription id: %w", err)
	}
	return subscription.ID(c.Value - 1), nil
}

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return vault.ErrAlreadyExists
		}
		return fmt.Errorf("vault/mongo: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID subscription.ID) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(subID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vault.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("vault/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": subscriptionFields(m)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vault/mongo: update subscription: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vault.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) ListByMerchant(ctx context.Context, merchant types.Principal, offset, limit int) ([]*subscription.Subscription, error) {
	var models []subscriptionModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"merchant": merchant.String()}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if limit > 0 {
		q = q.Limit(int64(limit))
	}
	if offset > 0 {
		q = q.Skip(int64(offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list by merchant: %w", err)
	}
	return fromSubscriptionModels(models)
}

func (s *Store) CountByMerchant(ctx context.Context, merchant types.Principal) (int, error) {
	n, err := s.mdb.Collection(colSubscriptions).CountDocuments(ctx, bson.M{"merchant": merchant.String()})
	if err != nil {
		return 0, fmt.Errorf("vault/mongo: count by merchant: %w", err)
	}
	return int(n), nil
}

func (s *Store) ListBySubscriber(ctx context.Context, subscriber types.Principal, fromID subscription.ID, limit int) ([]subscription.ID, error) {
	var models []subscriptionModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{
			"subscriber": subscriber.String(),
			"_id":        bson.M{"$gte": int64(fromID)},
		}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list by subscriber: %w", err)
	}

	ids := make([]subscription.ID, len(models))
	for i := range models {
		ids[i] = subscription.ID(models[i].ID)
	}
	return ids, nil
}

func (s *Store) ListByStatus(ctx context.Context, status subscription.Status, fromID subscription.ID, limit int) ([]*subscription.Subscription, error) {
	var models []subscriptionModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{
			"status": string(status),
			"_id":    bson.M{"$gte": int64(fromID)},
		}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vault/mongo: list by status: %w", err)
	}
	return fromSubscriptionModels(models)
}

// ==================== Replay Store ====================

func (s *Store) GetReplayState(ctx context.Context, subID subscription.ID) (*subscription.ReplayState, error) {
	var m replayStateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(subID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return &subscription.ReplayState{SubscriptionID: subID}, nil
		}
		return nil, fmt.Errorf("vault/mongo: get replay state: %w", err)
	}
	return fromReplayStateModel(&m), nil
}

// CommitCharge writes the debited subscription together with its replay
// state in a single-document update.
func (s *Store) CommitCharge(ctx context.Context, sub *subscription.Subscription, r *subscription.ReplayState) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()

	set := subscriptionFields(m)
	set["last_period"] = int64(r.LastPeriod)
	set["charged"] = r.Charged
	set["idempotency_key"] = r.IdempotencyKey

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": set}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vault/mongo: commit charge: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vault.ErrSubscriptionNotFound
	}
	return nil
}

// ==================== Config Store ====================

func (s *Store) GetConfig(ctx context.Context) (*admin.Config, error) {
	var m configModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": configDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vault.ErrNotInitialized
		}
		return nil, fmt.Errorf("vault/mongo: get config: %w", err)
	}
	return fromConfigModel(&m)
}

func (s *Store) SaveConfig(ctx context.Context, cfg *admin.Config) error {
	m := toConfigModel(cfg)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": configDocID}).
		SetUpdate(bson.M{"$set": bson.M{
			"asset":      m.Asset,
			"admin":      m.Admin,
			"min_topup":  m.MinTopup,
			"custody":    m.Custody,
			"created_at": m.CreatedAt,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vault/mongo: save config: %w", err)
	}
	return nil
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

// subscriptionFields lists the mutable subscription fields. The embedded
// replay fields are left out so UpdateSubscription never overwrites them.
func subscriptionFields(m *subscriptionModel) bson.M {
	return bson.M{
		"last_payment_timestamp": m.LastPaymentTimestamp,
		"status":                 m.Status,
		"prepaid_balance":        m.PrepaidBalance,
		"usage_enabled":          m.UsageEnabled,
		"updated_at":             m.UpdatedAt,
	}
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all vault collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSubscriptions: {
			{Keys: bson.D{{Key: "merchant", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "subscriber", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colConfig:      {},
	}
}
