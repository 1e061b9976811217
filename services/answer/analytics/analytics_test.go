// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analytics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRecorder creates an InfluxRecorder pointing at a test server.
func newTestRecorder(t *testing.T, influxURL string) *InfluxRecorder {
	t.Helper()
	t.Setenv("INFLUXDB_URL", influxURL)
	t.Setenv("INFLUXDB_TOKEN", "test-token")
	t.Setenv("INFLUXDB_ORG", "aleutian")
	t.Setenv("INFLUXDB_BUCKET", "answer-analytics")

	recorder, err := NewInfluxRecorder()
	require.NoError(t, err)
	return recorder
}

func TestInfluxRecorder_RecordQuery_WritesLineProtocol(t *testing.T) {
	var mu sync.Mutex
	var bodies []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/write" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	recorder := newTestRecorder(t, server.URL)

	recorder.RecordQuery(QueryEvent{
		UserID:               "alice",
		Query:                "where is the parser repo:acme",
		SelectPrompt:         "select prompt text",
		RelevantSnippetIndex: 2,
		ExplainPrompt:        "explain prompt text",
		Explanation:          "the parser lives in server/src",
		Timestamp:            time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	recorder.Close()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, bodies)

	all := ""
	for _, b := range bodies {
		all += b + "\n"
	}
	assert.Contains(t, all, "answer_query")
	assert.Contains(t, all, "user_id=alice")
	assert.Contains(t, all, "relevant_snippet_index=2i")
	assert.Contains(t, all, "event_id=")
}

func TestInfluxRecorder_RecordQuery_DoesNotBlockOnDownBackend(t *testing.T) {
	// Point at a closed port; WritePoint must buffer and return without
	// waiting on the backend.
	recorder := newTestRecorder(t, "http://127.0.0.1:1")

	start := time.Now()
	recorder.RecordQuery(QueryEvent{UserID: "bob", Query: "anything"})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second)
	recorder.Close()
}

func TestNewInfluxRecorder_RequiresURLAndToken(t *testing.T) {
	t.Setenv("INFLUXDB_URL", "")
	t.Setenv("INFLUXDB_TOKEN", "token")
	_, err := NewInfluxRecorder()
	assert.Error(t, err)

	t.Setenv("INFLUXDB_URL", "http://influxdb:8086")
	t.Setenv("INFLUXDB_TOKEN", "")
	_, err = NewInfluxRecorder()
	assert.Error(t, err)
}

func TestNopRecorder_RecordQuery(t *testing.T) {
	var recorder Recorder = NopRecorder{}
	assert.NotPanics(t, func() {
		recorder.RecordQuery(QueryEvent{UserID: "alice", Query: "anything"})
	})
}
