package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/vault/admin"
	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Init stores the singleton configuration. It fails with
// ErrAlreadyInitialized when called twice.
func (v *Vault) Init(ctx context.Context, asset string, adminP Principal, minTopup Amount, custody Principal) error {
	if minTopup.IsNegative() {
		return ErrInvalidAmount
	}
	if adminP.IsZero() {
		return ErrUnauthorized
	}

	return v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		_, err := v.store.GetConfig(ctx)
		switch {
		case err == nil:
			return nil, ErrAlreadyInitialized
		case !errors.Is(err, ErrNotInitialized):
			return nil, err
		}

		cfg := &admin.Config{
			Entity:   types.NewEntity(stamp(now)),
			Asset:    asset,
			Admin:    adminP,
			MinTopup: minTopup,
			Custody:  custody,
		}
		if err := v.store.SaveConfig(ctx, cfg); err != nil {
			return nil, err
		}

		v.logger.Info("vault initialized",
			"asset", asset,
			"admin", adminP,
			"min_topup", minTopup,
		)

		return []*event.Event{event.New(event.TopicInitialized, now, &event.Initialized{
			Asset:    asset,
			Admin:    adminP,
			MinTopup: minTopup,
			Custody:  custody,
		})}, nil
	})
}

// ApplyAdminRotation returns cfg with admin authority moved to next. The
// caller must be the current admin.
func ApplyAdminRotation(cfg admin.Config, caller, next Principal) (admin.Config, error) {
	if caller != cfg.Admin {
		return cfg, ErrUnauthorized
	}
	if next.IsZero() {
		return cfg, fmt.Errorf("%w: empty admin", ErrUnauthorized)
	}
	cfg.Admin = next
	return cfg, nil
}

// ApplyMinTopup returns cfg with a new minimum deposit. The caller must be
// the current admin and the minimum must not be negative.
func ApplyMinTopup(cfg admin.Config, caller Principal, minTopup Amount) (admin.Config, error) {
	if caller != cfg.Admin {
		return cfg, ErrUnauthorized
	}
	if minTopup.IsNegative() {
		return cfg, ErrInvalidAmount
	}
	cfg.MinTopup = minTopup
	return cfg, nil
}

// RotateAdmin hands admin authority to next. It takes effect immediately.
func (v *Vault) RotateAdmin(ctx context.Context, current, next Principal) error {
	if err := v.authorize(ctx, current); err != nil {
		return err
	}

	return v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		cfg, err := v.store.GetConfig(ctx)
		if err != nil {
			return nil, err
		}
		rotated, err := ApplyAdminRotation(*cfg, current, next)
		if err != nil {
			return nil, err
		}
		rotated.Touch(stamp(now))
		if err := v.store.SaveConfig(ctx, &rotated); err != nil {
			return nil, err
		}

		v.logger.Info("admin rotated", "previous", current, "next", next)

		return []*event.Event{event.New(event.TopicAdminRotated, now, &event.AdminRotated{
			Previous: current,
			Next:     next,
		})}, nil
	})
}

// SetMinTopup changes the minimum deposit.
func (v *Vault) SetMinTopup(ctx context.Context, caller Principal, minTopup Amount) error {
	if err := v.authorize(ctx, caller); err != nil {
		return err
	}

	return v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		cfg, err := v.store.GetConfig(ctx)
		if err != nil {
			return nil, err
		}
		updated, err := ApplyMinTopup(*cfg, caller, minTopup)
		if err != nil {
			return nil, err
		}
		updated.Touch(stamp(now))
		if err := v.store.SaveConfig(ctx, &updated); err != nil {
			return nil, err
		}

		return []*event.Event{event.New(event.TopicMinTopupUpdated, now, &event.MinTopupUpdated{
			MinTopup: minTopup,
		})}, nil
	})
}

// RecoverStrandedFunds sends asset held in custody without a subscription
// claim to recipient. Subscription records are never read or changed. The
// returned record is also published on the recovery event.
func (v *Vault) RecoverStrandedFunds(ctx context.Context, caller, recipient Principal, amount Amount, reason RecoveryReason) (*admin.Recovery, error) {
	if err := v.authorize(ctx, caller); err != nil {
		return nil, err
	}

	var rec *admin.Recovery
	err := v.exec(ctx, func(now uint64) ([]*event.Event, error) {
		cfg, err := v.checkAdmin(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !amount.IsPositive() {
			return nil, ErrInvalidRecoveryAmount
		}
		if !reason.IsValid() {
			return nil, ErrInvalidRecoveryReason
		}

		if err := v.transfer.Transfer(ctx, cfg.Asset, cfg.Custody, recipient, amount); err != nil {
			return nil, fmt.Errorf("vault: recovery transfer: %w", err)
		}

		rec = &admin.Recovery{
			ID:        id.NewRecoveryID(),
			Admin:     caller,
			Recipient: recipient,
			Amount:    amount,
			Reason:    reason,
			Timestamp: now,
		}

		v.logger.Warn("stranded funds recovered",
			"recovery_id", rec.ID,
			"recipient", recipient,
			"amount", amount,
			"reason", reason,
		)

		return []*event.Event{event.New(event.TopicRecovered, now, &event.Recovered{Recovery: *rec})}, nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetAdmin returns the current admin principal.
func (v *Vault) GetAdmin(ctx context.Context) (Principal, error) {
	cfg, err := v.store.GetConfig(ctx)
	if err != nil {
		return "", err
	}
	return cfg.Admin, nil
}

// GetMinTopup returns the minimum deposit.
func (v *Vault) GetMinTopup(ctx context.Context) (Amount, error) {
	cfg, err := v.store.GetConfig(ctx)
	if err != nil {
		return Amount{}, err
	}
	return cfg.MinTopup, nil
}

// GetConfig returns the stored configuration.
func (v *Vault) GetConfig(ctx context.Context) (*Config, error) {
	return v.store.GetConfig(ctx)
}

// checkAdmin loads the configuration and requires caller to be its admin.
// An unconfigured vault fails with ErrNotInitialized.
func (v *Vault) checkAdmin(ctx context.Context, caller Principal) (*admin.Config, error) {
	cfg, err := v.store.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Admin != caller {
		return nil, ErrUnauthorized
	}
	return cfg, nil
}
