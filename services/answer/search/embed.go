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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

type embeddingRequest struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Id        string    `json:"id"`
	Timestamp int       `json:"timestamp"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector"`
	Dim       int       `json:"dim"`
}

// HTTPEmbedder computes embeddings via the embedding sidecar's /embed
// endpoint.
//
// # Description
//
// HTTPEmbedder posts the text as JSON to the configured embedding service
// and returns the vector from the response. The client is constructed once
// at service start and injected wherever embeddings are needed.
//
// # Thread Safety
//
// HTTPEmbedder is safe for concurrent use.
type HTTPEmbedder struct {
	httpClient *http.Client
	url        string
}

// NewHTTPEmbedder creates an embedder from the EMBEDDING_SERVICE_URL
// environment variable.
//
// # Outputs
//
//   - *HTTPEmbedder: Ready to use embedder.
//   - error: Non-nil if EMBEDDING_SERVICE_URL is unset.
func NewHTTPEmbedder() (*HTTPEmbedder, error) {
	url := os.Getenv("EMBEDDING_SERVICE_URL")
	if url == "" {
		return nil, fmt.Errorf("EMBEDDING_SERVICE_URL environment variable is not set")
	}

	return &HTTPEmbedder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
	}, nil
}

// Embed computes a vector embedding for the given text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embeddingRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal the embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to setup a new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make the request to the embedding service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("Failed to close embedding response body", "error", err)
		}
	}()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("the response was not a 200 OK from the embedding service: %s, "+
			"%d", string(bodyBytes), resp.StatusCode)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse the response from the embedding service: %w", err)
	}
	if len(embResp.Vector) == 0 {
		return nil, fmt.Errorf("embedding service returned an empty vector")
	}

	return embResp.Vector, nil
}

var _ EmbeddingProvider = (*HTTPEmbedder)(nil)
