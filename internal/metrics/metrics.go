// Package metrics holds the Prometheus collectors shared by the trigger
// handlers, the provider clients and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeBlocked = "blocked"
	OutcomeFailed  = "failed"
)

var (
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "push_dispatch_total",
		Help: "Push dispatch attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	IndexOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_index_ops_total",
		Help: "Search index upserts and deletes by result.",
	}, []string{"op", "result"})

	TranslatorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translator_calls_total",
		Help: "Translation provider calls by endpoint and HTTP status class.",
	}, []string{"endpoint", "status"})

	StreamRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stream_records_total",
		Help: "Change-stream records by table and result.",
	}, []string{"table", "result"})

	HandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trigger_handler_duration_seconds",
		Help:    "Time spent inside a change-reaction handler.",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})
)
