package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK    = "ok"
	ResultNoop  = "noop"
	ResultError = "error"
)

// CartMetrics records cart mutations and checkout handoffs.
type CartMetrics struct {
	operations *prometheus.CounterVec
	checkout   prometheus.Histogram
	lines      prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations partitioned by operation and result.",
	}, []string{"op", "result"})
	checkout := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_checkout_total_vnd",
		Help:    "Final totals (VND) of submitted checkouts.",
		Buckets: prometheus.ExponentialBuckets(10_000, 4, 8),
	})
	lines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_checkout_lines",
		Help:    "Number of selected lines per submitted checkout.",
		Buckets: prometheus.LinearBuckets(1, 2, 10),
	})
	reg.MustRegister(operations, checkout, lines)
	return &CartMetrics{
		operations: operations,
		checkout:   checkout,
		lines:      lines,
	}
}

// IncOperation counts one cart operation outcome.
func (c *CartMetrics) IncOperation(op, result string) {
	if c == nil || c.operations == nil {
		return
	}
	c.operations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// ObserveCheckout records the final total and line count of a submitted checkout.
func (c *CartMetrics) ObserveCheckout(totalVND int64, lineCount int) {
	if c == nil || c.checkout == nil {
		return
	}
	c.checkout.Observe(float64(totalVND))
	c.lines.Observe(float64(lineCount))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
