// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Reconciliation metrics
	PassesTotal   *prometheus.CounterVec
	PassDuration  *prometheus.HistogramVec
	TokensSkipped *prometheus.CounterVec
	GallerySize   *prometheus.GaugeVec
	Supply        prometheus.Gauge
	PassesStale   prometheus.Counter

	// Chain metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCErrors      *prometheus.CounterVec
	LogsReceived   prometheus.Counter

	// Mint metrics
	MintsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPass prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "epic_nft_gallery"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		PassesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "passes_total",
			Help:      "Total number of reconciliation passes by trigger and status",
		}, []string{"trigger", "status"}),
		PassDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "pass_duration_seconds",
			Help:      "Reconciliation pass duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"trigger"}),
		TokensSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "tokens_skipped_total",
			Help:      "Total number of token ids skipped by reason",
		}, []string{"reason"}),
		GallerySize: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gallery",
			Name:      "tokens",
			Help:      "Number of tokens in the published gallery view",
		}, []string{"view"}),
		Supply: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gallery",
			Name:      "supply",
			Help:      "Last observed total minted supply",
		}),
		PassesStale: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "passes_superseded_total",
			Help:      "Passes discarded because a newer input version arrived",
		}),

		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evm",
			Name:      "rpc_call_latency_seconds",
			Help:      "EVM JSON-RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evm",
			Name:      "rpc_errors_total",
			Help:      "Total number of failed EVM JSON-RPC calls",
		}, []string{"method"}),
		LogsReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evm",
			Name:      "logs_received_total",
			Help:      "Total number of Transfer logs received over WebSocket",
		}),

		MintsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "requests_total",
			Help:      "Total number of mint requests by status",
		}, []string{"status"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulPass: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pass_timestamp",
			Help:      "Unix timestamp of last successful reconciliation pass",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordPass records a finished reconciliation pass.
func RecordPass(trigger, status string, duration time.Duration, all, mine int) {
	DefaultMetrics.PassesTotal.WithLabelValues(trigger, status).Inc()
	DefaultMetrics.PassDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	if status == "completed" || status == "empty" {
		DefaultMetrics.GallerySize.WithLabelValues("all").Set(float64(all))
		DefaultMetrics.GallerySize.WithLabelValues("mine").Set(float64(mine))
		DefaultMetrics.LastSuccessfulPass.Set(float64(time.Now().Unix()))
	}
}

// RecordSkipped increments the skipped token counter.
func RecordSkipped(reason string) {
	DefaultMetrics.TokensSkipped.WithLabelValues(reason).Inc()
}

// RecordSuperseded counts a pass discarded as stale.
func RecordSuperseded() {
	DefaultMetrics.PassesStale.Inc()
}

// UpdateSupply sets the observed supply gauge.
func UpdateSupply(supply uint64) {
	DefaultMetrics.Supply.Set(float64(supply))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCError counts a failed RPC call.
func RecordRPCError(method string) {
	DefaultMetrics.RPCErrors.WithLabelValues(method).Inc()
}

// RecordLogReceived counts a contract log delivered by a subscription.
func RecordLogReceived() {
	DefaultMetrics.LogsReceived.Inc()
}

// RecordMint records a mint attempt outcome.
func RecordMint(status string) {
	DefaultMetrics.MintsTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
