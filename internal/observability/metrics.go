package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	httpDurationHistogram    *prometheus.HistogramVec
	ledgerEntryCounter       *prometheus.CounterVec
	operationRejectedCounter *prometheus.CounterVec
	idempotencyCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerEntryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_entries_total",
			Help: "Ledger entries written, by movement type",
		}, []string{"type"})

		operationRejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_operations_rejected_total",
			Help: "Transfer-engine rejections, by operation and error kind",
		}, []string{"operation", "kind"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerEntryCounter,
			operationRejectedCounter,
			idempotencyCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerEntry(entryType string) {
	if ledgerEntryCounter == nil {
		return
	}
	ledgerEntryCounter.WithLabelValues(entryType).Inc()
}

func IncrementOperationRejected(operation, kind string) {
	if operationRejectedCounter == nil {
		return
	}
	operationRejectedCounter.WithLabelValues(operation, kind).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}
