// Package audithook bridges Vault events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/subscription"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated = (*Extension)(nil)
	_ plugin.OnDeposited           = (*Extension)(nil)
	_ plugin.OnStatusChanged       = (*Extension)(nil)
	_ plugin.OnCharged             = (*Extension)(nil)
	_ plugin.OnChargeFailed        = (*Extension)(nil)
	_ plugin.OnBatchCharged        = (*Extension)(nil)
	_ plugin.OnWithdrawn           = (*Extension)(nil)
	_ plugin.OnRecovered           = (*Extension)(nil)
	_ plugin.OnConfigChanged       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Vault events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, c *event.Created) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, c.SubscriptionID.String(), CategorySubscription, nil,
		"subscriber", c.Subscriber.String(),
		"merchant", c.Merchant.String(),
		"amount", c.Amount.String(),
		"interval_seconds", c.IntervalSeconds,
		"usage_enabled", c.UsageEnabled,
	)
}

// OnDeposited implements plugin.OnDeposited.
func (e *Extension) OnDeposited(ctx context.Context, d *event.Deposited) error {
	return e.record(ctx, ActionSubscriptionDeposited, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, d.SubscriptionID.String(), CategoryFunds, nil,
		"subscriber", d.Subscriber.String(),
		"amount", d.Amount.String(),
		"balance", d.Balance.String(),
	)
}

// OnStatusChanged implements plugin.OnStatusChanged.
func (e *Extension) OnStatusChanged(ctx context.Context, c *event.StatusChanged) error {
	action, severity := ActionSubscriptionPaused, SeverityInfo
	switch c.To {
	case subscription.StatusActive:
		action = ActionSubscriptionResumed
	case subscription.StatusCancelled:
		action = ActionSubscriptionCancelled
	case subscription.StatusInsufficientBalance:
		action, severity = ActionBalanceExhausted, SeverityWarning
	}

	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceSubscription, c.SubscriptionID.String(), CategorySubscription, nil,
		"authorizer", c.Authorizer.String(),
		"from", string(c.From),
		"to", string(c.To),
		"balance", c.Balance.String(),
	)
}

// ──────────────────────────────────────────────────
// Charge hooks
// ──────────────────────────────────────────────────

// OnCharged implements plugin.OnCharged.
func (e *Extension) OnCharged(ctx context.Context, c *event.Charged) error {
	action := ActionIntervalCharged
	switch c.Kind {
	case event.ChargeUsage:
		action = ActionUsageCharged
	case event.ChargeOneOff:
		action = ActionOneOffCharged
	}

	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceCharge, c.SubscriptionID.String(), CategoryBilling, nil,
		"merchant", c.Merchant.String(),
		"amount", c.Amount.String(),
		"balance", c.Balance.String(),
		"period", c.Period,
	)
}

// OnChargeFailed implements plugin.OnChargeFailed.
func (e *Extension) OnChargeFailed(ctx context.Context, f *event.ChargeFailed) error {
	return e.record(ctx, ActionChargeFailed, SeverityWarning, OutcomeFailure,
		ResourceCharge, f.SubscriptionID.String(), CategoryBilling, errors.New(f.Reason),
		"code", f.Code,
	)
}

// OnBatchCharged implements plugin.OnBatchCharged.
func (e *Extension) OnBatchCharged(ctx context.Context, b *event.BatchCharged) error {
	outcome := OutcomeSuccess
	switch {
	case b.Failed > 0 && b.Succeeded > 0:
		outcome = OutcomePartial
	case b.Failed > 0:
		outcome = OutcomeFailure
	}

	return e.record(ctx, ActionBatchCharged, SeverityInfo, outcome,
		ResourceBatch, b.BatchID.String(), CategoryBilling, nil,
		"total", b.Total,
		"succeeded", b.Succeeded,
		"failed", b.Failed,
	)
}

// ──────────────────────────────────────────────────
// Funds and admin hooks
// ──────────────────────────────────────────────────

// OnWithdrawn implements plugin.OnWithdrawn.
func (e *Extension) OnWithdrawn(ctx context.Context, w *event.Withdrawn) error {
	return e.record(ctx, ActionMerchantWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, w.WithdrawalID.String(), CategoryFunds, nil,
		"merchant", w.Merchant.String(),
		"amount", w.Amount.String(),
	)
}

// OnRecovered implements plugin.OnRecovered.
func (e *Extension) OnRecovered(ctx context.Context, r *event.Recovered) error {
	rec := r.Recovery
	return e.record(ctx, ActionFundsRecovered, SeverityCritical, OutcomeSuccess,
		ResourceRecovery, rec.ID.String(), CategoryFunds, nil,
		"admin", rec.Admin.String(),
		"recipient", rec.Recipient.String(),
		"amount", rec.Amount.String(),
		"reason", rec.Reason.String(),
	)
}

// OnConfigChanged implements plugin.OnConfigChanged.
func (e *Extension) OnConfigChanged(ctx context.Context, topic event.Topic, payload interface{}) error {
	switch p := payload.(type) {
	case *event.Initialized:
		return e.record(ctx, ActionVaultInitialized, SeverityInfo, OutcomeSuccess,
			ResourceConfig, "", CategoryAdmin, nil,
			"asset", p.Asset,
			"admin", p.Admin.String(),
			"min_topup", p.MinTopup.String(),
		)
	case *event.AdminRotated:
		return e.record(ctx, ActionAdminRotated, SeverityCritical, OutcomeSuccess,
			ResourceConfig, "", CategoryAdmin, nil,
			"previous", p.Previous.String(),
			"next", p.Next.String(),
		)
	case *event.MinTopupUpdated:
		return e.record(ctx, ActionMinTopupUpdated, SeverityWarning, OutcomeSuccess,
			ResourceConfig, "", CategoryAdmin, nil,
			"min_topup", p.MinTopup.String(),
		)
	}
	e.logger.Debug("audit_hook: unhandled config topic", "topic", topic)
	return nil
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
