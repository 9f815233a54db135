package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldb_requests_total",
			Help: "Total number of DSL requests handled, by operation and status",
		},
		[]string{"operation", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coldb_request_duration_seconds",
			Help:    "DSL request handling latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coldb_connections_active",
			Help: "Number of currently open client connections",
		},
	)

	// Query engine metrics
	SelectLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coldb_select_latency_seconds",
			Help:    "Time taken to evaluate a select predicate, by access path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"access_path"},
	)

	JoinLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coldb_join_latency_seconds",
			Help:    "Time taken to evaluate a join, by strategy",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// Scheduler metrics
	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coldb_batch_size",
			Help:    "Number of queries drained from a single shared-scan batch",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
	)

	BatchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coldb_batch_latency_seconds",
			Help:    "Time taken to execute one drained batch of queries",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueriesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coldb_queries_failed_total",
			Help: "Total number of queries that returned an execution error",
		},
	)

	// Storage metrics
	TableRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coldb_table_rows",
			Help: "Current logical row count per table",
		},
		[]string{"table"},
	)

	SnapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coldb_snapshot_duration_seconds",
			Help:    "Time taken to write a catalog and column snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldb_snapshots_total",
			Help: "Total number of snapshot cycles, by outcome",
		},
		[]string{"outcome"},
	)

	BulkLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coldb_bulk_load_duration_seconds",
			Help:    "Time taken to load a CSV file into a table",
			Buckets: prometheus.DefBuckets,
		},
	)

	BulkLoadRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coldb_bulk_load_rows_total",
			Help: "Total number of rows ingested via bulk load",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(SelectLatency)
	prometheus.MustRegister(JoinLatency)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(BatchLatency)
	prometheus.MustRegister(QueriesFailed)
	prometheus.MustRegister(TableRows)
	prometheus.MustRegister(SnapshotDuration)
	prometheus.MustRegister(SnapshotsTotal)
	prometheus.MustRegister(BulkLoadDuration)
	prometheus.MustRegister(BulkLoadRowsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
