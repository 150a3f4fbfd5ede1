package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vault/admin"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// ==================== Subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:vault_subscriptions"`

	ID                   int64     `grove:"id,pk"`
	Subscriber           string    `grove:"subscriber"`
	Merchant             string    `grove:"merchant"`
	Amount               string    `grove:"amount"`
	IntervalSeconds      int64     `grove:"interval_seconds"`
	LastPaymentTimestamp int64     `grove:"last_payment_timestamp"`
	Status               string    `grove:"status"`
	PrepaidBalance       string    `grove:"prepaid_balance"`
	UsageEnabled         bool      `grove:"usage_enabled"`
	CreatedAt            time.Time `grove:"created_at"`
	UpdatedAt            time.Time `grove:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:                   int64(s.ID),
		Subscriber:           s.Subscriber.String(),
		Merchant:             s.Merchant.String(),
		Amount:               s.Amount.String(),
		IntervalSeconds:      int64(s.IntervalSeconds),
		LastPaymentTimestamp: int64(s.LastPaymentTimestamp),
		Status:               string(s.Status),
		PrepaidBalance:       s.PrepaidBalance.String(),
		UsageEnabled:         s.UsageEnabled,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}
	balance, err := types.ParseAmount(m.PrepaidBalance)
	if err != nil {
		return nil, err
	}

	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                   subscription.ID(m.ID),
		Subscriber:           types.Principal(m.Subscriber),
		Merchant:             types.Principal(m.Merchant),
		Amount:               amount,
		IntervalSeconds:      uint64(m.IntervalSeconds),
		LastPaymentTimestamp: uint64(m.LastPaymentTimestamp),
		Status:               subscription.Status(m.Status),
		PrepaidBalance:       balance,
		UsageEnabled:         m.UsageEnabled,
	}, nil
}

// ==================== Replay models ====================

// replayStateModel reads the replay columns of a subscription row. They are
// written only by CommitCharge and are absent from subscriptionModel, so
// UpdateSubscription never touches them.
type replayStateModel struct {
	grove.BaseModel `grove:"table:vault_subscriptions"`

	SubscriptionID int64  `grove:"id,pk"`
	LastPeriod     int64  `grove:"last_period"`
	Charged        bool   `grove:"charged"`
	IdempotencyKey string `grove:"idempotency_key"`
}

func fromReplayStateModel(m *replayStateModel) *subscription.ReplayState {
	return &subscription.ReplayState{
		SubscriptionID: subscription.ID(m.SubscriptionID),
		LastPeriod:     uint64(m.LastPeriod),
		Charged:        m.Charged,
		IdempotencyKey: m.IdempotencyKey,
	}
}

// ==================== Config models ====================

// configRowID is the primary key of the single configuration row.
const configRowID = 1

type configModel struct {
	grove.BaseModel `grove:"table:vault_config"`

	ID        int       `grove:"id,pk"`
	Asset     string    `grove:"asset"`
	Admin     string    `grove:"admin"`
	MinTopup  string    `grove:"min_topup"`
	Custody   string    `grove:"custody"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toConfigModel(c *admin.Config) *configModel {
	return &configModel{
		ID:        configRowID,
		Asset:     c.Asset,
		Admin:     c.Admin.String(),
		MinTopup:  c.MinTopup.String(),
		Custody:   c.Custody.String(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromConfigModel(m *configModel) (*admin.Config, error) {
	minTopup, err := types.ParseAmount(m.MinTopup)
	if err != nil {
		return nil, err
	}
	return &admin.Config{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Asset:    m.Asset,
		Admin:    types.Principal(m.Admin),
		MinTopup: minTopup,
		Custody:  types.Principal(m.Custody),
	}, nil
}
