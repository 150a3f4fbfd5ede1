// Package event defines the notifications a Vault emits after an operation
// commits. Each Event carries one typed payload; Topic names the payload.
package event

import (
	"github.com/xraph/vault/admin"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// Topic is the routing key of an event.
type Topic string

const (
	TopicInitialized         Topic = "vault.initialized"
	TopicCreated             Topic = "subscription.created"
	TopicDeposited           Topic = "subscription.deposited"
	TopicCharged             Topic = "subscription.charged"
	TopicUsageCharged        Topic = "subscription.usage_charged"
	TopicOneOffCharged       Topic = "subscription.oneoff_charged"
	TopicPaused              Topic = "subscription.paused"
	TopicResumed             Topic = "subscription.resumed"
	TopicCancelled           Topic = "subscription.cancelled"
	TopicInsufficientBalance Topic = "subscription.insufficient_balance"
	TopicChargeFailed        Topic = "charge.failed"
	TopicBatchCharged        Topic = "batch.charged"
	TopicWithdrawn           Topic = "merchant.withdrawn"
	TopicRecovered           Topic = "funds.recovered"
	TopicAdminRotated        Topic = "admin.rotated"
	TopicMinTopupUpdated     Topic = "config.min_topup_updated"
)

// Event is one emitted notification.
type Event struct {
	ID        id.EventID `json:"id"`
	Topic     Topic      `json:"topic"`
	Timestamp uint64     `json:"timestamp"`
	Payload   any        `json:"payload"`
}

// New creates an event with a fresh id.
func New(topic Topic, at uint64, payload any) *Event {
	return &Event{
		ID:        id.NewEventID(),
		Topic:     topic,
		Timestamp: at,
		Payload:   payload,
	}
}

// Initialized is emitted once by Init.
type Initialized struct {
	Asset    string          `json:"asset"`
	Admin    types.Principal `json:"admin"`
	MinTopup types.Amount    `json:"min_topup"`
	Custody  types.Principal `json:"custody"`
}

// Created is emitted when a subscription is created.
type Created struct {
	SubscriptionID  subscription.ID `json:"subscription_id"`
	Subscriber      types.Principal `json:"subscriber"`
	Merchant        types.Principal `json:"merchant"`
	Amount          types.Amount    `json:"amount"`
	IntervalSeconds uint64          `json:"interval_seconds"`
	UsageEnabled    bool            `json:"usage_enabled"`
}

// Deposited is emitted when prepaid funds are added.
type Deposited struct {
	SubscriptionID subscription.ID `json:"subscription_id"`
	Subscriber     types.Principal `json:"subscriber"`
	Amount         types.Amount    `json:"amount"`
	Balance        types.Amount    `json:"balance"`
}

// Charged is emitted for every successful debit. Kind tells interval,
// usage and one-off charges apart.
type Charged struct {
	SubscriptionID subscription.ID `json:"subscription_id"`
	Merchant       types.Principal `json:"merchant"`
	Kind           ChargeKind      `json:"kind"`
	Amount         types.Amount    `json:"amount"`
	Balance        types.Amount    `json:"balance"`
	// Period is set for interval charges only.
	Period uint64 `json:"period,omitempty"`
}

// ChargeKind distinguishes the three debit paths.
type ChargeKind string

const (
	ChargeInterval ChargeKind = "interval"
	ChargeUsage    ChargeKind = "usage"
	ChargeOneOff   ChargeKind = "one_off"
)

// StatusChanged is emitted for pause, resume, cancel and for the automatic
// move to InsufficientBalance.
type StatusChanged struct {
	SubscriptionID subscription.ID     `json:"subscription_id"`
	Authorizer     types.Principal     `json:"authorizer,omitempty"`
	From           subscription.Status `json:"from"`
	To             subscription.Status `json:"to"`
	// Balance is the prepaid balance left at the time of the change. For a
	// cancellation it is the amount that stays in custody.
	Balance types.Amount `json:"balance"`
}

// ChargeFailed is emitted when an interval charge is rejected.
type ChargeFailed struct {
	SubscriptionID subscription.ID `json:"subscription_id"`
	Code           uint32          `json:"code"`
	Reason         string          `json:"reason"`
}

// BatchCharged summarizes one batch run.
type BatchCharged struct {
	BatchID   id.BatchID `json:"batch_id"`
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
}

// Withdrawn is emitted when a merchant withdraws funds from custody.
type Withdrawn struct {
	WithdrawalID id.WithdrawalID `json:"withdrawal_id"`
	Merchant     types.Principal `json:"merchant"`
	Amount       types.Amount    `json:"amount"`
}

// Recovered is emitted for every stranded-funds recovery.
type Recovered struct {
	Recovery admin.Recovery `json:"recovery"`
}

// AdminRotated is emitted when admin authority moves.
type AdminRotated struct {
	Previous types.Principal `json:"previous"`
	Next     types.Principal `json:"next"`
}

// MinTopupUpdated is emitted when the minimum deposit changes.
type MinTopupUpdated struct {
	MinTopup types.Amount `json:"min_topup"`
}
