package vault

import (
	"context"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/id"
)

// BatchResult is the outcome of charging one id in a batch.
type BatchResult struct {
	Success   bool `json:"success"`
	ErrorCode Code `json:"error_code"`
}

// BatchCharge runs an interval charge, without an idempotency key, for each
// id in order. Every id commits on its own: a failure is recorded in its
// result and never affects another id. Duplicate ids are charged in turn
// and observe each other's effects. The returned slice has one entry per
// input id.
func (v *Vault) BatchCharge(ctx context.Context, caller Principal, ids []SubscriptionID) ([]BatchResult, error) {
	if err := v.authorize(ctx, caller); err != nil {
		return nil, err
	}
	if err := v.exec(ctx, func(uint64) ([]*event.Event, error) {
		_, err := v.checkAdmin(ctx, caller)
		return nil, err
	}); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(ids))
	succeeded := 0

	for i, subID := range ids {
		err := v.exec(ctx, func(now uint64) ([]*event.Event, error) {
			events, err := v.chargeInterval(ctx, subID, "", now)
			if err != nil {
				events = append(events, chargeFailed(subID, now, err))
			}
			return events, err
		})
		if err != nil {
			results[i] = BatchResult{ErrorCode: CodeOf(err)}
			v.logger.Debug("batch charge failed",
				"subscription_id", subID,
				"code", CodeOf(err),
				"error", err,
			)
			continue
		}
		results[i] = BatchResult{Success: true}
		succeeded++
	}

	summary := &event.BatchCharged{
		BatchID:   id.NewBatchID(),
		Total:     len(ids),
		Succeeded: succeeded,
		Failed:    len(ids) - succeeded,
	}
	v.plugins.Dispatch(ctx, event.New(event.TopicBatchCharged, v.clock.Now(), summary))

	v.logger.Info("batch charge completed",
		"batch_id", summary.BatchID,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)

	return results, nil
}
