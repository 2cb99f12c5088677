// Package metrics provides Prometheus-backed observability for the wire
// protocol engine: op counts, byte counters, and auth failures. Passing a
// nil *Collector anywhere it's accepted disables instrumentation with zero
// overhead.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus instruments for one client process. Create
// one with New and share it across sessions; it is safe for concurrent use
// because the underlying prometheus vectors are.
type Collector struct {
	OpsTotal          *prometheus.CounterVec
	OpErrorsTotal     *prometheus.CounterVec
	BytesRead         prometheus.Counter
	BytesWritten      prometheus.Counter
	AuthFailuresTotal prometheus.Counter
	FetchBatchSize    prometheus.Histogram
}

// New registers a fresh set of fbwire metrics against reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests), or
// prometheus.DefaultRegisterer's registry in a process that exposes /metrics.
func New(reg prometheus.Registerer) *Collector {
	return &Collector{
		OpsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fbwire_ops_total",
				Help: "Total wire operations issued, by operation name.",
			},
			[]string{"op"},
		),
		OpErrorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fbwire_op_errors_total",
				Help: "Total wire operations that returned a status-vector or I/O error, by operation name.",
			},
			[]string{"op"},
		),
		BytesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "fbwire_bytes_read_total",
			Help: "Total bytes read from the wire socket.",
		}),
		BytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "fbwire_bytes_written_total",
			Help: "Total bytes written to the wire socket.",
		}),
		AuthFailuresTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "fbwire_auth_failures_total",
			Help: "Total authentication failures (SRP proof mismatch or legacy auth rejection).",
		}),
		FetchBatchSize: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "fbwire_fetch_batch_rows",
			Help:    "Row count returned per op_fetch_response batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// ObserveOp increments OpsTotal for op and, if err is non-nil, OpErrorsTotal.
// Safe to call on a nil *Collector.
func (c *Collector) ObserveOp(op string, err error) {
	if c == nil {
		return
	}
	c.OpsTotal.WithLabelValues(op).Inc()
	if err != nil {
		c.OpErrorsTotal.WithLabelValues(op).Inc()
	}
}

// ObserveAuthFailure increments AuthFailuresTotal. Safe to call on a nil
// *Collector. Callers are the SRP proof-mismatch and legacy-auth-rejection
// paths in the authentication engine.
func (c *Collector) ObserveAuthFailure() {
	if c == nil {
		return
	}
	c.AuthFailuresTotal.Inc()
}

// ObserveFetchBatch records the row count of one op_fetch_response batch
// in FetchBatchSize. Safe to call on a nil *Collector.
func (c *Collector) ObserveFetchBatch(rows int) {
	if c == nil {
		return
	}
	c.FetchBatchSize.Observe(float64(rows))
}
