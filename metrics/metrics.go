// Package metrics wraps the Prometheus collectors the client records fetch
// telemetry into.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records fetch metrics. A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	inflight      prometheus.Gauge
	alerts        prometheus.Counter
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "mirsal"
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
	}

	c.fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "total",
			Help:      "Fetches by resource key and outcome",
		},
		[]string{"key", "outcome"},
	)

	c.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Time from issuing a fetch to its completion",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"key"},
	)

	c.inflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "inflight",
			Help:      "Network operations currently in flight",
		},
	)

	c.alerts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts raised by failed batches",
		},
	)

	c.registry.MustRegister(c.fetchTotal, c.fetchDuration, c.inflight, c.alerts)
	return c
}

// Registry returns the collector's registry for exposition.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Register adds the collector's metrics to reg as well.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{c.fetchTotal, c.fetchDuration, c.inflight, c.alerts} {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordStart marks a network operation as in flight.
func (c *Collector) RecordStart() {
	if c == nil {
		return
	}
	c.inflight.Inc()
}

// RecordFinish records the completion of a network operation.
func (c *Collector) RecordFinish(key, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.inflight.Dec()
	c.fetchTotal.WithLabelValues(key, outcome).Inc()
	c.fetchDuration.WithLabelValues(key).Observe(duration.Seconds())
}

// RecordOutcome counts a fetch that never reached the network, such as a no-op.
func (c *Collector) RecordOutcome(key, outcome string) {
	if c == nil {
		return
	}
	c.fetchTotal.WithLabelValues(key, outcome).Inc()
}

// RecordAlert counts a raised alert.
func (c *Collector) RecordAlert() {
	if c == nil {
		return
	}
	c.alerts.Inc()
}
