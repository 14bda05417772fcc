// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package metrics exposes Prometheus instrumentation for Basketlift:
// storage query performance, recommendation serving throughput and latency,
// and training run outcomes. All collectors are registered on the default
// registry and served on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Storage metrics.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basketlift_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basketlift_db_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Serving metrics.
	RecommendationRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "basketlift_recommendation_requests_total",
			Help: "Total recommendation requests served",
		},
	)

	RecommendationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "basketlift_recommendation_duration_seconds",
			Help:    "Latency of recommendation lookups in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	SuggestionsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "basketlift_suggestions_returned",
			Help:    "Number of suggestions returned per request",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
		},
	)

	ActiveRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "basketlift_active_rules",
			Help: "Number of association rules in the active serving snapshot",
		},
	)

	// Training metrics.
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basketlift_training_runs_total",
			Help: "Total training runs by outcome",
		},
		[]string{"status"}, // "success", "failed", "rejected"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "basketlift_training_duration_seconds",
			Help:    "Duration of complete training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	// HTTP metrics.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basketlift_http_requests_total",
			Help: "Total HTTP requests by route, method, and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basketlift_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Ingestion metrics.
	IngestedTransactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "basketlift_ingested_transactions_total",
			Help: "Total transactions written by the ingestion pipeline",
		},
	)

	IngestChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basketlift_ingest_chunks_total",
			Help: "Total ingestion chunks processed by outcome",
		},
		[]string{"status"}, // "success", "failed"
	)
)

// ObserveDBQuery records one storage operation. Use with defer:
//
//	defer metrics.ObserveDBQuery("insert", "transactions", time.Now())
func ObserveDBQuery(operation, table string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
