// Package telemetry exposes prometheus collectors for the chat pipeline.
// Metrics are served on the API's /metrics endpoint.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequests counts finished chat requests by response mode
	// (chat, clarify, sql, invalid_input, fallback, sql_rejected, error_fallback).
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salesanalysis",
		Name:      "chat_requests_total",
		Help:      "Chat requests completed, labelled by response mode.",
	}, []string{"mode"})

	// StageDuration observes per-stage latency within one request.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "salesanalysis",
		Name:      "chat_stage_duration_seconds",
		Help:      "Duration of pipeline stages (route, execute, narrate).",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	// LLMRequests counts completion calls by outcome.
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salesanalysis",
		Name:      "llm_requests_total",
		Help:      "Reasoning-oracle calls by outcome (ok, error).",
	}, []string{"outcome"})

	// SQLRejected counts generated statements blocked by the safety validator.
	SQLRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "salesanalysis",
		Name:      "sql_rejected_total",
		Help:      "Generated SQL statements rejected by the safety policy.",
	})

	// CacheHits counts query results served from redis.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "salesanalysis",
		Name:      "cache_hits_total",
		Help:      "Query results served from the redis cache.",
	})
)

// ObserveStage records one stage duration.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
