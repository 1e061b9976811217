// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEmbedder creates an HTTPEmbedder pointing at a test server,
// bypassing environment configuration.
func newTestEmbedder(url string) *HTTPEmbedder {
	return &HTTPEmbedder{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		url:        url,
	}
}

func TestHTTPEmbedder_Embed_ReturnsVector(t *testing.T) {
	want := []float32{0.023, -0.156, 0.089}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "clear search history icon", req.Text)

		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Id:     "emb_1",
			Text:   req.Text,
			Vector: want,
			Dim:    len(want),
		})
	}))
	defer server.Close()

	embedder := newTestEmbedder(server.URL)
	got, err := embedder.Embed(context.Background(), "clear search history icon")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHTTPEmbedder_Embed_Non200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	embedder := newTestEmbedder(server.URL)
	_, err := embedder.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPEmbedder_Embed_EmptyVectorIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse{Id: "emb_2", Vector: []float32{}})
	}))
	defer server.Close()

	embedder := newTestEmbedder(server.URL)
	_, err := embedder.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty vector")
}

func TestHTTPEmbedder_Embed_MalformedBodyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	embedder := newTestEmbedder(server.URL)
	_, err := embedder.Embed(context.Background(), "anything")
	assert.Error(t, err)
}

func TestNewHTTPEmbedder_RequiresURL(t *testing.T) {
	t.Setenv("EMBEDDING_SERVICE_URL", "")
	_, err := NewHTTPEmbedder()
	assert.Error(t, err)
}

func TestNewHTTPEmbedder_ReadsEnv(t *testing.T) {
	t.Setenv("EMBEDDING_SERVICE_URL", "http://embedder.internal/embed")
	embedder, err := NewHTTPEmbedder()
	require.NoError(t, err)
	assert.Equal(t, "http://embedder.internal/embed", embedder.url)
}
