package vault

import (
	"context"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/subscription"
)

// ChargeInterval debits one recurring payment. Only the admin may call it.
//
// A non-empty key that matches the key stored with the last successful
// charge makes the call a no-op that succeeds. Otherwise the charge is
// rejected when the current billing period (now / interval) has already
// been charged, or when the interval since the last payment has not
// elapsed. A balance shorter than the amount moves the subscription to
// InsufficientBalance, persists that move and fails.
func (v *Vault) ChargeInterval(ctx context.Context, caller Principal, subID SubscriptionID, key string) error {
	if err := v.authorize(ctx, caller); err != nil {
		return err
	}

	return v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		if _, err := v.checkAdmin(ctx, caller); err != nil {
			return nil, err
		}
		events, err := v.chargeInterval(ctx, subID, key, now)
		if err != nil {
			events = append(events, chargeFailed(subID, now, err))
		}
		return events, err
	})
}

// chargeInterval is the unlocked, unauthorized interval charge shared by
// single and batch charging. The caller holds the operation lock.
func (v *Vault) chargeInterval(ctx context.Context, subID SubscriptionID, key string, now uint64) ([]*event.Event, error) {
	sub, err := v.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}
	if sub.Status != subscription.StatusActive {
		return nil, ErrNotActive
	}

	period := now
	if sub.IntervalSeconds > 0 {
		period = now / sub.IntervalSeconds
	}

	replay, err := v.store.GetReplayState(ctx, subID)
	if err != nil {
		return nil, err
	}
	if key != "" && replay.IdempotencyKey == key {
		v.logger.Debug("idempotent interval charge",
			"subscription_id", subID,
			"key", key,
		)
		return nil, nil
	}
	if replay.Charged && replay.LastPeriod >= period {
		return nil, ErrReplay
	}

	next, err := checkedAdd(sub.LastPaymentTimestamp, sub.IntervalSeconds)
	if err != nil {
		return nil, err
	}
	if now < next {
		return nil, ErrIntervalNotElapsed
	}

	if sub.PrepaidBalance.LessThan(sub.Amount) {
		return v.markInsufficient(ctx, sub, now, ErrInsufficientBalance)
	}

	balance, err := SubFromBalance(sub.PrepaidBalance, sub.Amount)
	if err != nil {
		return nil, err
	}

	replay.SubscriptionID = subID
	replay.LastPeriod = period
	replay.Charged = true
	if key != "" {
		replay.IdempotencyKey = key
	}

	sub.PrepaidBalance = balance
	sub.LastPaymentTimestamp = now
	sub.Touch(stamp(now))
	if err := v.store.CommitCharge(ctx, sub, replay); err != nil {
		return nil, err
	}

	return []*event.Event{event.New(event.TopicCharged, now, &event.Charged{
		SubscriptionID: sub.ID,
		Merchant:       sub.Merchant,
		Kind:           event.ChargeInterval,
		Amount:         sub.Amount,
		Balance:        balance,
		Period:         period,
	})}, nil
}

// ChargeUsage debits a metered amount. Only the admin may call it. The
// subscription must be Active with usage enabled. A debit that empties the
// balance moves the subscription to InsufficientBalance.
func (v *Vault) ChargeUsage(ctx context.Context, caller Principal, subID SubscriptionID, amount Amount) error {
	if err := v.authorize(ctx, caller); err != nil {
		return err
	}

	return v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		if _, err := v.checkAdmin(ctx, caller); err != nil {
			return nil, err
		}
		sub, err := v.store.GetSubscription(ctx, subID)
		if err != nil {
			return nil, err
		}
		if sub.Status != subscription.StatusActive {
			return nil, ErrNotActive
		}
		if !sub.UsageEnabled {
			return nil, ErrUsageNotEnabled
		}
		if !amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		if sub.PrepaidBalance.LessThan(amount) {
			return nil, ErrInsufficientPrepaid
		}

		balance, err := SubFromBalance(sub.PrepaidBalance, amount)
		if err != nil {
			return nil, err
		}

		sub.PrepaidBalance = balance
		sub.Touch(stamp(now))

		events := []*event.Event{event.New(event.TopicUsageCharged, now, &event.Charged{
			SubscriptionID: sub.ID,
			Merchant:       sub.Merchant,
			Kind:           event.ChargeUsage,
			Amount:         amount,
			Balance:        balance,
		})}

		if balance.IsZero() {
			if err := ValidateTransition(sub.Status, subscription.StatusInsufficientBalance); err != nil {
				return nil, err
			}
			sub.Status = subscription.StatusInsufficientBalance
			events = append(events, event.New(event.TopicInsufficientBalance, now, &event.StatusChanged{
				SubscriptionID: sub.ID,
				From:           subscription.StatusActive,
				To:             subscription.StatusInsufficientBalance,
				Balance:        balance,
			}))
		}

		if err := v.store.UpdateSubscription(ctx, sub); err != nil {
			return nil, err
		}
		return events, nil
	})
}

// ChargeOneOff debits an ad hoc amount on the merchant's authority. The
// subscription must be Active or Paused.
func (v *Vault) ChargeOneOff(ctx context.Context, merchant Principal, subID SubscriptionID, amount Amount) error {
	if err := v.authorize(ctx, merchant); err != nil {
		return err
	}

	return v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		sub, err := v.store.GetSubscription(ctx, subID)
		if err != nil {
			return nil, err
		}
		if sub.Merchant != merchant {
			return nil, ErrUnauthorized
		}
		if sub.Status != subscription.StatusActive && sub.Status != subscription.StatusPaused {
			return nil, ErrNotActive
		}
		if !amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		if sub.PrepaidBalance.LessThan(amount) {
			return nil, ErrInsufficientBalance
		}

		balance, err := SubFromBalance(sub.PrepaidBalance, amount)
		if err != nil {
			return nil, err
		}

		sub.PrepaidBalance = balance
		sub.Touch(stamp(now))
		if err := v.store.UpdateSubscription(ctx, sub); err != nil {
			return nil, err
		}

		return []*event.Event{event.New(event.TopicOneOffCharged, now, &event.Charged{
			SubscriptionID: sub.ID,
			Merchant:       sub.Merchant,
			Kind:           event.ChargeOneOff,
			Amount:         amount,
			Balance:        balance,
		})}, nil
	})
}

// markInsufficient persists the move to InsufficientBalance and returns
// cause. The status change is kept even though the charge fails.
func (v *Vault) markInsufficient(ctx context.Context, sub *Subscription, now uint64, cause error) ([]*event.Event, error) {
	from := sub.Status
	if err := ValidateTransition(from, subscription.StatusInsufficientBalance); err != nil {
		return nil, err
	}

	sub.Status = subscription.StatusInsufficientBalance
	sub.Touch(stamp(now))
	if err := v.store.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	v.logger.Info("subscription out of funds",
		"subscription_id", sub.ID,
		"balance", sub.PrepaidBalance,
		"amount", sub.Amount,
	)

	return []*event.Event{event.New(event.TopicInsufficientBalance, now, &event.StatusChanged{
		SubscriptionID: sub.ID,
		From:           from,
		To:             subscription.StatusInsufficientBalance,
		Balance:        sub.PrepaidBalance,
	})}, cause
}

func chargeFailed(subID SubscriptionID, now uint64, err error) *event.Event {
	return event.New(event.TopicChargeFailed, now, &event.ChargeFailed{
		SubscriptionID: subID,
		Code:           uint32(CodeOf(err)),
		Reason:         err.Error(),
	})
}
