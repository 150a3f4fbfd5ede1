package observability_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault/event"
	"github.com/xraph/vault/observability"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

func TestMetricsExtensionCountsEvents(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	m := observability.NewMetricsExtension(observability.NewPrometheusFactory(registry))

	require.NoError(t, m.OnCharged(ctx, &event.Charged{Kind: event.ChargeInterval, Amount: types.NewAmount(10)}))
	require.NoError(t, m.OnCharged(ctx, &event.Charged{Kind: event.ChargeInterval, Amount: types.NewAmount(10)}))
	require.NoError(t, m.OnCharged(ctx, &event.Charged{Kind: event.ChargeUsage, Amount: types.NewAmount(3)}))
	require.NoError(t, m.OnChargeFailed(ctx, &event.ChargeFailed{Code: 1007}))
	require.NoError(t, m.OnChargeFailed(ctx, &event.ChargeFailed{Code: 1003}))
	require.NoError(t, m.OnStatusChanged(ctx, &event.StatusChanged{To: subscription.StatusInsufficientBalance}))
	require.NoError(t, m.OnBatchCharged(ctx, &event.BatchCharged{Total: 5, Succeeded: 3, Failed: 2}))
	require.NoError(t, m.OnConfigChanged(ctx, event.TopicAdminRotated, &event.AdminRotated{}))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.IntervalCharges.(prometheus.Counter)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UsageCharges.(prometheus.Counter)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ChargeFailures.(prometheus.Counter)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReplayRejected.(prometheus.Counter)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BalanceExhausted.(prometheus.Counter)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.BatchSucceeded.(prometheus.Counter)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BatchFailed.(prometheus.Counter)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AdminRotations.(prometheus.Counter)))
}

func TestPrometheusFactoryNames(t *testing.T) {
	registry := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(registry)

	c := f.Counter("vault.charge.interval")
	c.Inc()
	assert.Same(t, c, f.Counter("vault.charge.interval"))

	f.Histogram("vault.charge.amount").Observe(42)

	n, err := testutil.GatherAndCount(registry, "vault_charge_interval_total", "vault_charge_amount")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPrometheusFactorySharedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	a := observability.NewPrometheusFactory(registry).Counter("vault.batch.runs")
	b := observability.NewPrometheusFactory(registry).Counter("vault.batch.runs")

	a.Inc()
	b.Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(a.(prometheus.Counter)))
}
