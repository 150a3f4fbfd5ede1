// Package subscription defines the prepaid subscription record, its replay
// state and the status transition table.
package subscription

import (
	"fmt"
	"strconv"

	"github.com/xraph/vault/types"
)

// ID is the sequential identifier assigned at creation, starting at 0.
type ID uint64

// String returns the decimal form of the id.
func (i ID) String() string { return strconv.FormatUint(uint64(i), 10) }

// ParseID parses a decimal subscription id.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subscription: parse id %q: %w", s, err)
	}
	return ID(v), nil
}

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive              Status = "active"
	StatusPaused              Status = "paused"
	StatusCancelled           Status = "cancelled"
	StatusInsufficientBalance Status = "insufficient_balance"
)

// Subscription is a prepaid agreement between a subscriber and a merchant.
// Amount, IntervalSeconds and UsageEnabled never change after creation.
type Subscription struct {
	types.Entity
	ID                   ID              `json:"id"`
	Subscriber           types.Principal `json:"subscriber"`
	Merchant             types.Principal `json:"merchant"`
	Amount               types.Amount    `json:"amount"`
	IntervalSeconds      uint64          `json:"interval_seconds"`
	LastPaymentTimestamp uint64          `json:"last_payment_timestamp"`
	Status               Status          `json:"status"`
	PrepaidBalance       types.Amount    `json:"prepaid_balance"`
	UsageEnabled         bool            `json:"usage_enabled"`
}

// IsParty reports whether p is the subscriber or the merchant.
func (s *Subscription) IsParty(p types.Principal) bool {
	return p == s.Subscriber || p == s.Merchant
}

// ReplayState is the per-subscription interval charge guard. It is stored
// separately from the Subscription and overwritten on each successful
// interval charge.
type ReplayState struct {
	SubscriptionID ID `json:"subscription_id"`
	// LastPeriod is now/interval of the last successful interval charge.
	// It is meaningful only when Charged is true.
	LastPeriod uint64 `json:"last_period"`
	Charged    bool   `json:"charged"`
	// IdempotencyKey is the last key accepted with a successful charge.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// NextChargeInfo projects when the next interval charge is due.
type NextChargeInfo struct {
	NextChargeTimestamp uint64 `json:"next_charge_timestamp"`
	IsChargeExpected    bool   `json:"is_charge_expected"`
}

// Page is one page of subscription ids.
type Page struct {
	IDs     []ID `json:"subscription_ids"`
	HasNext bool `json:"has_next"`
}
