// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analytics records answered queries for offline analysis.
//
// # Description
//
// Every answered query produces one audit event carrying the raw query,
// both prompts, the model's selected index, and the explanation text.
// Recording is strictly fire-and-forget: a slow or unreachable analytics
// store must never delay or fail the request that produced the event.
package analytics

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// QueryEvent is the audit record for one answered query.
//
// RelevantSnippetIndex is the index the model returned, before the
// response assembler swaps the chosen snippet to position 0.
type QueryEvent struct {
	EventID              string
	UserID               string
	Query                string
	SelectPrompt         string
	RelevantSnippetIndex int
	ExplainPrompt        string
	Explanation          string
	Timestamp            time.Time
}

// Recorder defines the interface for emitting query events.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Recorder interface {
	// RecordQuery emits one event. It never blocks on the analytics
	// backend and never returns an error; failures are logged and the
	// event is dropped.
	RecordQuery(event QueryEvent)
}

// InfluxRecorder implements Recorder using the InfluxDB non-blocking
// write API.
//
// # Description
//
// Events become points in the answer_query measurement, tagged by user id.
// Writes buffer in the client and flush in batches; a background goroutine
// drains the write API's error channel so failed batches surface in logs
// instead of piling up.
//
// # Thread Safety
//
// InfluxRecorder is safe for concurrent use.
type InfluxRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	done     chan struct{}
}

// NewInfluxRecorder creates a recorder from INFLUXDB_* environment
// variables.
//
// # Outputs
//
//   - *InfluxRecorder: Ready to use recorder with its error drain running.
//   - error: Non-nil if INFLUXDB_URL or INFLUXDB_TOKEN is unset.
func NewInfluxRecorder() (*InfluxRecorder, error) {
	influxURL := os.Getenv("INFLUXDB_URL")
	if influxURL == "" {
		return nil, fmt.Errorf("INFLUXDB_URL environment variable is not set")
	}
	influxToken := os.Getenv("INFLUXDB_TOKEN")
	if influxToken == "" {
		return nil, fmt.Errorf("INFLUXDB_TOKEN environment variable is not set")
	}
	influxOrg := os.Getenv("INFLUXDB_ORG")
	if influxOrg == "" {
		influxOrg = "aleutian"
	}
	influxBucket := os.Getenv("INFLUXDB_BUCKET")
	if influxBucket == "" {
		influxBucket = "answer-analytics"
	}

	client := influxdb2.NewClient(influxURL, influxToken)
	recorder := &InfluxRecorder{
		client:   client,
		writeAPI: client.WriteAPI(influxOrg, influxBucket),
		done:     make(chan struct{}),
	}
	go recorder.drainWriteErrors()

	slog.Info("Analytics recorder initialized",
		"influx_url", influxURL,
		"influx_org", influxOrg,
		"influx_bucket", influxBucket)
	return recorder, nil
}

// drainWriteErrors logs asynchronous write failures. The channel closes
// when the client shuts down, which ends the goroutine.
func (r *InfluxRecorder) drainWriteErrors() {
	defer close(r.done)
	for err := range r.writeAPI.Errors() {
		slog.Warn("Analytics write failed", "error", err)
	}
}

// RecordQuery emits one event to the answer_query measurement.
func (r *InfluxRecorder) RecordQuery(event QueryEvent) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	point := influxdb2.NewPoint(
		"answer_query",
		map[string]string{
			"user_id": event.UserID,
		},
		map[string]interface{}{
			"event_id":               event.EventID,
			"query":                  event.Query,
			"select_prompt":          event.SelectPrompt,
			"relevant_snippet_index": event.RelevantSnippetIndex,
			"explain_prompt":         event.ExplainPrompt,
			"explanation":            event.Explanation,
		},
		event.Timestamp,
	)
	r.writeAPI.WritePoint(point)

	slog.Debug("Recorded query event",
		"event_id", event.EventID,
		"user_id", event.UserID,
		"relevant_snippet_index", event.RelevantSnippetIndex)
}

// Close flushes buffered points and stops the error drain. Call during
// service shutdown.
func (r *InfluxRecorder) Close() {
	r.writeAPI.Flush()
	r.client.Close()
	<-r.done
}

var _ Recorder = (*InfluxRecorder)(nil)

// NopRecorder discards all events. Used when analytics is not configured
// and in tests.
type NopRecorder struct{}

// RecordQuery discards the event.
func (NopRecorder) RecordQuery(QueryEvent) {}

var _ Recorder = NopRecorder{}
