package vault

import (
	"context"

	"github.com/xraph/vault/subscription"
)

// GetSubscription returns a subscription by id.
func (v *Vault) GetSubscription(ctx context.Context, subID SubscriptionID) (*Subscription, error) {
	return v.store.GetSubscription(ctx, subID)
}

// ListByMerchant returns up to limit of the merchant's subscriptions in
// creation order, starting at offset start. Cancelled subscriptions stay
// listed. The result is empty when start is past the end or limit is 0.
func (v *Vault) ListByMerchant(ctx context.Context, merchant Principal, start, limit int) ([]*Subscription, error) {
	if limit <= 0 || start < 0 {
		return []*Subscription{}, nil
	}
	count, err := v.store.CountByMerchant(ctx, merchant)
	if err != nil {
		return nil, err
	}
	if start >= count {
		return []*Subscription{}, nil
	}
	return v.store.ListByMerchant(ctx, merchant, start, limit)
}

// CountByMerchant returns the number of subscriptions ever created for the
// merchant.
func (v *Vault) CountByMerchant(ctx context.Context, merchant Principal) (int, error) {
	return v.store.CountByMerchant(ctx, merchant)
}

// ListBySubscriber returns a page of the subscriber's subscription ids,
// ascending, starting at startFromID inclusive. Request the following page
// with the last returned id plus one. A zero limit fails with ErrNotFound.
func (v *Vault) ListBySubscriber(ctx context.Context, subscriber Principal, startFromID SubscriptionID, limit int) (*subscription.Page, error) {
	if limit <= 0 {
		return nil, ErrNotFound
	}

	ids, err := v.store.ListBySubscriber(ctx, subscriber, startFromID, limit+1)
	if err != nil {
		return nil, err
	}

	page := &subscription.Page{IDs: ids}
	if len(ids) > limit {
		page.IDs = ids[:limit]
		page.HasNext = true
	}
	if page.IDs == nil {
		page.IDs = []SubscriptionID{}
	}
	return page, nil
}

// EstimateTopup returns how much must be deposited to cover n more interval
// charges given the current balance. It never returns a negative amount.
func (v *Vault) EstimateTopup(ctx context.Context, subID SubscriptionID, n uint32) (Amount, error) {
	sub, err := v.store.GetSubscription(ctx, subID)
	if err != nil {
		return Amount{}, err
	}
	if n == 0 {
		return Amount{}, nil
	}

	required, err := SafeMul(sub.Amount, NewAmount(int64(n)))
	if err != nil {
		return Amount{}, err
	}

	topup, err := SafeSub(required, sub.PrepaidBalance)
	if err != nil || topup.IsNegative() {
		return Amount{}, nil
	}
	return topup, nil
}

// NextChargeInfo projects the next interval charge of sub. The timestamp
// saturates instead of wrapping. A charge is expected for Active and
// InsufficientBalance subscriptions.
func NextChargeInfo(sub *Subscription) subscription.NextChargeInfo {
	expected := false
	switch sub.Status {
	case subscription.StatusActive, subscription.StatusInsufficientBalance:
		expected = true
	}
	return subscription.NextChargeInfo{
		NextChargeTimestamp: saturatingAdd(sub.LastPaymentTimestamp, sub.IntervalSeconds),
		IsChargeExpected:    expected,
	}
}

// GetNextChargeInfo loads a subscription and projects its next charge.
func (v *Vault) GetNextChargeInfo(ctx context.Context, subID SubscriptionID) (subscription.NextChargeInfo, error) {
	sub, err := v.store.GetSubscription(ctx, subID)
	if err != nil {
		return subscription.NextChargeInfo{}, err
	}
	return NextChargeInfo(sub), nil
}
