// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the
// answer service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring the answer
// pipeline. Metrics include:
//   - Request counters (by endpoint, status)
//   - Pipeline stage latency histograms (search, select, grow, explain)
//   - Completion call latency (by backend and operation)
//   - Error counters (by endpoint, error code)
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for answer pipeline metrics
const answerSubsystem = "answer"

// AnswerMetrics holds all Prometheus metrics for the answer pipeline.
//
// # Description
//
// Provides counters and histograms for monitoring pipeline performance and
// failure modes. Initialize once at startup via InitMetrics().
//
// # Fields
//
//   - RequestsTotal: Counter of answer requests by endpoint and status
//   - StageDurationSeconds: Histogram of per-stage pipeline latency
//   - CompletionLatencySeconds: Histogram of completion call latency
//   - ErrorsTotal: Counter of errors by endpoint and code
//
// # Thread Safety
//
// All operations are thread-safe.
type AnswerMetrics struct {
	// RequestsTotal counts answer requests by endpoint and status.
	// Labels: endpoint (answer), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// StageDurationSeconds measures per-stage pipeline latency.
	// Labels: stage (search, select, fetch_content, grow, explain, pipeline)
	StageDurationSeconds *prometheus.HistogramVec

	// CompletionLatencySeconds measures completion call latency.
	// Labels: backend (answerapi, openai, ...), operation (select, explain)
	CompletionLatencySeconds *prometheus.HistogramVec

	// ErrorsTotal counts errors by endpoint and code.
	// Labels: endpoint, error_code (validation, no_results, bad_index, ...)
	ErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of AnswerMetrics.
// Initialized by InitMetrics(). Consumers must nil-check it so code paths
// stay usable before initialization (and in tests).
var DefaultMetrics *AnswerMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once at
// application startup, after the Prometheus registry is available.
//
// # Outputs
//
//   - *AnswerMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *AnswerMetrics {
	DefaultMetrics = &AnswerMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: answerSubsystem,
				Name:      "requests_total",
				Help:      "Total number of answer requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		StageDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: answerSubsystem,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"stage"},
		),

		CompletionLatencySeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: answerSubsystem,
				Name:      "completion_latency_seconds",
				Help:      "Completion backend call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"backend", "operation"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: answerSubsystem,
				Name:      "errors_total",
				Help:      "Total answer errors by endpoint and code",
			},
			[]string{"endpoint", "error_code"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeNoResults indicates the semantic search came back empty.
	ErrorCodeNoResults ErrorCode = "no_results"

	// ErrorCodeBadIndex indicates an unparseable or out-of-range selection.
	ErrorCodeBadIndex ErrorCode = "bad_index"

	// ErrorCodeContentMissing indicates the content store had no file body.
	ErrorCodeContentMissing ErrorCode = "content_missing"

	// ErrorCodeOverloaded indicates the completion backend returned 503.
	ErrorCodeOverloaded ErrorCode = "overloaded"

	// ErrorCodeLLMError indicates any other completion backend failure.
	ErrorCodeLLMError ErrorCode = "llm_error"

	// ErrorCodeInternal indicates internal server error.
	ErrorCodeInternal ErrorCode = "internal"
)

// =============================================================================
// Endpoint and Stage Names
// =============================================================================

// Endpoint represents a served endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointAnswer is the answer query endpoint.
	EndpointAnswer Endpoint = "answer"
)

// Stage represents a pipeline stage for latency labeling.
type Stage string

const (
	// StageSearch is the semantic index call.
	StageSearch Stage = "search"

	// StageSelect is the snippet selection completion call.
	StageSelect Stage = "select"

	// StageFetchContent is the file body fetch.
	StageFetchContent Stage = "fetch_content"

	// StageGrow is the context growth loop.
	StageGrow Stage = "grow"

	// StageExplain is the explanation completion call.
	StageExplain Stage = "explain"

	// StagePipeline is the whole pipeline end to end.
	StagePipeline Stage = "pipeline"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed answer request.
//
// # Inputs
//
//   - endpoint: The endpoint that handled the request.
//   - success: Whether the request completed successfully.
func (m *AnswerMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records a categorized pipeline error.
//
// # Inputs
//
//   - endpoint: The endpoint where the error occurred.
//   - code: The error type code.
func (m *AnswerMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordStageDuration records how long one pipeline stage took.
//
// # Inputs
//
//   - stage: The pipeline stage.
//   - seconds: Stage duration in seconds.
func (m *AnswerMetrics) RecordStageDuration(stage Stage, seconds float64) {
	m.StageDurationSeconds.WithLabelValues(string(stage)).Observe(seconds)
}

// RecordCompletionLatency records one completion backend call.
//
// # Inputs
//
//   - backend: The completion client name (answerapi, openai, ...).
//   - operation: Which pipeline operation made the call.
//   - seconds: Call duration in seconds.
func (m *AnswerMetrics) RecordCompletionLatency(backend string, operation Stage, seconds float64) {
	m.CompletionLatencySeconds.WithLabelValues(backend, string(operation)).Observe(seconds)
}
