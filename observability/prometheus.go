package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusFactory is a MetricFactory backed by a Prometheus registerer.
// Dotted names are rewritten to the Prometheus convention, so
// "vault.charge.interval" becomes "vault_charge_interval_total".
type PrometheusFactory struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// NewPrometheusFactory creates a factory that registers metrics with reg.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	return &PrometheusFactory{
		reg:        reg,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter implements MetricFactory. Asking twice for a name returns the
// same counter.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: promName(name) + "_total",
		Help: "Vault " + name,
	})
	c = register(f.reg, c)
	f.counters[name] = c
	return c
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    promName(name),
		Help:    "Vault " + name,
		Buckets: prometheus.ExponentialBuckets(1, 10, 12),
	})
	h = register(f.reg, h)
	f.histograms[name] = h
	return h
}

func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

// register adds c to reg, reusing an equivalent collector that is already
// registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

var _ MetricFactory = (*PrometheusFactory)(nil)
