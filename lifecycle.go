package vault

import (
	"context"
	"fmt"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

// Create opens a subscription on the subscriber's authority. It starts
// Active with an empty balance and its first interval counted from now.
func (v *Vault) Create(ctx context.Context, subscriber, merchant Principal, amount Amount, intervalSeconds uint64, usageEnabled bool) (SubscriptionID, error) {
	if err := v.authorize(ctx, subscriber); err != nil {
		return 0, err
	}
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}

	var created SubscriptionID
	err := v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		subID, err := v.store.NextSubscriptionID(ctx)
		if err != nil {
			return nil, err
		}

		sub := &subscription.Subscription{
			Entity:               types.NewEntity(stamp(now)),
			ID:                   subID,
			Subscriber:           subscriber,
			Merchant:             merchant,
			Amount:               amount,
			IntervalSeconds:      intervalSeconds,
			LastPaymentTimestamp: now,
			Status:               subscription.StatusActive,
			UsageEnabled:         usageEnabled,
		}
		if err := v.store.CreateSubscription(ctx, sub); err != nil {
			return nil, err
		}
		created = subID

		return []*event.Event{event.New(event.TopicCreated, now, &event.Created{
			SubscriptionID:  subID,
			Subscriber:      subscriber,
			Merchant:        merchant,
			Amount:          amount,
			IntervalSeconds: intervalSeconds,
			UsageEnabled:    usageEnabled,
		})}, nil
	})
	if err != nil {
		return 0, err
	}

	v.logger.Info("subscription created",
		"subscription_id", created,
		"merchant", merchant,
		"amount", amount,
		"interval_seconds", intervalSeconds,
	)
	return created, nil
}

// Deposit adds prepaid funds. The asset moves from the subscriber into
// custody before the balance is stored; if the store write fails the
// transfer is reversed.
func (v *Vault) Deposit(ctx context.Context, subID SubscriptionID, subscriber Principal, amount Amount) error {
	if err := v.authorize(ctx, subscriber); err != nil {
		return err
	}

	return v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		cfg, err := v.store.GetConfig(ctx)
		if err != nil {
			return nil, err
		}
		if amount.LessThan(cfg.MinTopup) {
			return nil, ErrBelowMinimumTopup
		}

		sub, err := v.store.GetSubscription(ctx, subID)
		if err != nil {
			return nil, err
		}
		if sub.Subscriber != subscriber {
			return nil, ErrUnauthorized
		}
		if sub.Status.IsTerminal() {
			return nil, ErrNotActive
		}

		balance, err := AddToBalance(sub.PrepaidBalance, amount)
		if err != nil {
			return nil, err
		}

		if err := v.transfer.Transfer(ctx, cfg.Asset, subscriber, cfg.Custody, amount); err != nil {
			return nil, fmt.Errorf("vault: deposit transfer: %w", err)
		}

		sub.PrepaidBalance = balance
		sub.Touch(stamp(now))
		if err := v.store.UpdateSubscription(ctx, sub); err != nil {
			if rerr := v.transfer.Transfer(ctx, cfg.Asset, cfg.Custody, subscriber, amount); rerr != nil {
				v.logger.Error("deposit reversal failed",
					"subscription_id", subID,
					"amount", amount,
					"error", rerr,
				)
			}
			return nil, err
		}

		return []*event.Event{event.New(event.TopicDeposited, now, &event.Deposited{
			SubscriptionID: subID,
			Subscriber:     subscriber,
			Amount:         amount,
			Balance:        balance,
		})}, nil
	})
}

// Pause moves a subscription to Paused on a party's authority.
func (v *Vault) Pause(ctx context.Context, subID SubscriptionID, authorizer Principal) error {
	return v.setStatus(ctx, subID, authorizer, subscription.StatusPaused, event.TopicPaused)
}

// Resume moves a subscription back to Active on a party's authority.
func (v *Vault) Resume(ctx context.Context, subID SubscriptionID, authorizer Principal) error {
	return v.setStatus(ctx, subID, authorizer, subscription.StatusActive, event.TopicResumed)
}

// Cancel ends a subscription for good. The remaining balance stays in
// custody and is reported on the cancellation event.
func (v *Vault) Cancel(ctx context.Context, subID SubscriptionID, authorizer Principal) error {
	return v.setStatus(ctx, subID, authorizer, subscription.StatusCancelled, event.TopicCancelled)
}

func (v *Vault) setStatus(ctx context.Context, subID SubscriptionID, authorizer Principal, to Status, topic event.Topic) error {
	if err := v.authorize(ctx, authorizer); err != nil {
		return err
	}

	return v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		sub, err := v.store.GetSubscription(ctx, subID)
		if err != nil {
			return nil, err
		}
		if !sub.IsParty(authorizer) {
			return nil, ErrUnauthorized
		}

		from := sub.Status
		if err := ValidateTransition(from, to); err != nil {
			return nil, err
		}
		if from == to {
			return nil, nil
		}

		sub.Status = to
		sub.Touch(stamp(now))
		if err := v.store.UpdateSubscription(ctx, sub); err != nil {
			return nil, err
		}

		v.logger.Info("subscription status changed",
			"subscription_id", subID,
			"from", from,
			"to", to,
		)

		return []*event.Event{event.New(topic, now, &event.StatusChanged{
			SubscriptionID: subID,
			Authorizer:     authorizer,
			From:           from,
			To:             to,
			Balance:        sub.PrepaidBalance,
		})}, nil
	})
}
