package vault

import (
	"context"
	"fmt"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
)

// WithdrawMerchantFunds pays amount out of custody to the merchant. Earned
// revenue is not tracked per merchant; the transfer client is the only
// check on the custody balance.
func (v *Vault) WithdrawMerchantFunds(ctx context.Context, merchant Principal, amount Amount) error {
	if err := v.authorize(ctx, merchant); err != nil {
		return err
	}
	if err := ValidateNonNegative(amount); err != nil {
		return err
	}

	return v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		cfg, err := v.store.GetConfig(ctx)
		if err != nil {
			return nil, err
		}
		if err := v.transfer.Transfer(ctx, cfg.Asset, cfg.Custody, merchant, amount); err != nil {
			return nil, fmt.Errorf("vault: withdrawal transfer: %w", err)
		}

		w := &event.Withdrawn{
			WithdrawalID: id.NewWithdrawalID(),
			Merchant:     merchant,
			Amount:       amount,
		}
		v.logger.Info("merchant withdrawal",
			"withdrawal_id", w.WithdrawalID,
			"merchant", merchant,
			"amount", amount,
		)
		return []*event.Event{event.New(event.TopicWithdrawn, now, w)}, nil
	})
}
