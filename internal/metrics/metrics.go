// Package metrics exposes Prometheus counters for the bridge and services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueriesTotal counts façade executions by outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_engine_queries_total",
			Help: "Total number of match executions",
		},
		[]string{"status"},
	)
	// QueryDuration is the latency of match executions.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sercha_engine_query_duration_seconds",
			Help:    "Match execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	// ExpansionsTotal counts expansion executions by outcome.
	ExpansionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_engine_expansions_total",
			Help: "Total number of query expansions",
		},
		[]string{"status"},
	)
	// CallbackCalls counts engine-to-host dispatches by role.
	CallbackCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_engine_callback_calls_total",
			Help: "Total number of host callback invocations",
		},
		[]string{"role"},
	)
	// CallbackErrors counts host callback failures by role.
	CallbackErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_engine_callback_errors_total",
			Help: "Total number of host callback failures",
		},
		[]string{"role"},
	)
	// StaleHandles counts cursor or page use after the source changed.
	StaleHandles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_engine_stale_handles_total",
			Help: "Total number of rejected stale cursor dereferences",
		},
		[]string{"kind"},
	)
	// DocumentsIndexed counts documents written by the index service.
	DocumentsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sercha_engine_documents_indexed_total",
			Help: "Total number of documents indexed",
		},
	)
)

// Status returns the label for an operation outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
