// Package observability provides a metrics extension for Vault that records
// event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/subscription"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated = (*MetricsExtension)(nil)
	_ plugin.OnDeposited           = (*MetricsExtension)(nil)
	_ plugin.OnStatusChanged       = (*MetricsExtension)(nil)
	_ plugin.OnCharged             = (*MetricsExtension)(nil)
	_ plugin.OnChargeFailed        = (*MetricsExtension)(nil)
	_ plugin.OnBatchCharged        = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawn           = (*MetricsExtension)(nil)
	_ plugin.OnRecovered           = (*MetricsExtension)(nil)
	_ plugin.OnConfigChanged       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records vault-wide billing metrics.
// Register it as a Vault plugin to track them automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Subscription metrics
	SubscriptionCreated   Counter
	SubscriptionPaused    Counter
	SubscriptionResumed   Counter
	SubscriptionCancelled Counter
	BalanceExhausted      Counter

	// Funding metrics
	Deposits      Counter
	DepositAmount Histogram

	// Charge metrics
	IntervalCharges Counter
	UsageCharges    Counter
	OneOffCharges   Counter
	ChargeAmount    Histogram
	ChargeFailures  Counter
	ReplayRejected  Counter

	// Batch metrics
	BatchRuns      Counter
	BatchSize      Histogram
	BatchFailed    Counter
	BatchSucceeded Counter

	// Funds metrics
	Withdrawals     Counter
	Recoveries      Counter
	RecoveredAmount Histogram

	// Admin metrics
	AdminRotations Counter
	ConfigChanges  Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions or NewPrometheusFactory elsewhere.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Subscription metrics
		SubscriptionCreated:   factory.Counter("vault.subscription.created"),
		SubscriptionPaused:    factory.Counter("vault.subscription.paused"),
		SubscriptionResumed:   factory.Counter("vault.subscription.resumed"),
		SubscriptionCancelled: factory.Counter("vault.subscription.cancelled"),
		BalanceExhausted:      factory.Counter("vault.subscription.insufficient_balance"),

		// Funding metrics
		Deposits:      factory.Counter("vault.deposit.count"),
		DepositAmount: factory.Histogram("vault.deposit.amount"),

		// Charge metrics
		IntervalCharges: factory.Counter("vault.charge.interval"),
		UsageCharges:    factory.Counter("vault.charge.usage"),
		OneOffCharges:   factory.Counter("vault.charge.one_off"),
		ChargeAmount:    factory.Histogram("vault.charge.amount"),
		ChargeFailures:  factory.Counter("vault.charge.failed"),
		ReplayRejected:  factory.Counter("vault.charge.replay_rejected"),

		// Batch metrics
		BatchRuns:      factory.Counter("vault.batch.runs"),
		BatchSize:      factory.Histogram("vault.batch.size"),
		BatchFailed:    factory.Counter("vault.batch.failed"),
		BatchSucceeded: factory.Counter("vault.batch.succeeded"),

		// Funds metrics
		Withdrawals:     factory.Counter("vault.merchant.withdrawals"),
		Recoveries:      factory.Counter("vault.recovery.count"),
		RecoveredAmount: factory.Histogram("vault.recovery.amount"),

		// Admin metrics
		AdminRotations: factory.Counter("vault.admin.rotations"),
		ConfigChanges:  factory.Counter("vault.config.changes"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ *event.Created) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnDeposited implements plugin.OnDeposited.
func (m *MetricsExtension) OnDeposited(_ context.Context, d *event.Deposited) error {
	m.Deposits.Inc()
	m.DepositAmount.Observe(d.Amount.Float64())
	return nil
}

// OnStatusChanged implements plugin.OnStatusChanged.
func (m *MetricsExtension) OnStatusChanged(_ context.Context, c *event.StatusChanged) error {
	switch c.To {
	case subscription.StatusPaused:
		m.SubscriptionPaused.Inc()
	case subscription.StatusActive:
		m.SubscriptionResumed.Inc()
	case subscription.StatusCancelled:
		m.SubscriptionCancelled.Inc()
	case subscription.StatusInsufficientBalance:
		m.BalanceExhausted.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Charge hooks
// ──────────────────────────────────────────────────

// OnCharged implements plugin.OnCharged.
func (m *MetricsExtension) OnCharged(_ context.Context, c *event.Charged) error {
	switch c.Kind {
	case event.ChargeInterval:
		m.IntervalCharges.Inc()
	case event.ChargeUsage:
		m.UsageCharges.Inc()
	case event.ChargeOneOff:
		m.OneOffCharges.Inc()
	}
	m.ChargeAmount.Observe(c.Amount.Float64())
	return nil
}

// replayCode matches vault.CodeReplay without importing the root package.
const replayCode = 1007

// OnChargeFailed implements plugin.OnChargeFailed.
func (m *MetricsExtension) OnChargeFailed(_ context.Context, f *event.ChargeFailed) error {
	m.ChargeFailures.Inc()
	if f.Code == replayCode {
		m.ReplayRejected.Inc()
	}
	return nil
}

// OnBatchCharged implements plugin.OnBatchCharged.
func (m *MetricsExtension) OnBatchCharged(_ context.Context, b *event.BatchCharged) error {
	m.BatchRuns.Inc()
	m.BatchSize.Observe(float64(b.Total))
	m.BatchSucceeded.Add(float64(b.Succeeded))
	m.BatchFailed.Add(float64(b.Failed))
	return nil
}

// ──────────────────────────────────────────────────
// Funds and admin hooks
// ──────────────────────────────────────────────────

// OnWithdrawn implements plugin.OnWithdrawn.
func (m *MetricsExtension) OnWithdrawn(_ context.Context, _ *event.Withdrawn) error {
	m.Withdrawals.Inc()
	return nil
}

// OnRecovered implements plugin.OnRecovered.
func (m *MetricsExtension) OnRecovered(_ context.Context, r *event.Recovered) error {
	m.Recoveries.Inc()
	m.RecoveredAmount.Observe(r.Recovery.Amount.Float64())
	return nil
}

// OnConfigChanged implements plugin.OnConfigChanged.
func (m *MetricsExtension) OnConfigChanged(_ context.Context, topic event.Topic, _ interface{}) error {
	m.ConfigChanges.Inc()
	if topic == event.TopicAdminRotated {
		m.AdminRotations.Inc()
	}
	return nil
}
