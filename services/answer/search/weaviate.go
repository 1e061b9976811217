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
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("aleutian.answer.search")

// WeaviateIndex implements SemanticIndex using the CodeChunk class.
//
// # Description
//
// WeaviateIndex embeds the query target through the injected
// EmbeddingProvider and runs a nearVector GraphQL query against the
// CodeChunk class. Similarity scores come from the certainty field, which
// is always in [0, 1] regardless of the index's distance metric.
//
// # Thread Safety
//
// WeaviateIndex is safe for concurrent use. The underlying Weaviate client
// handles connection pooling.
//
// # Example
//
//	embedder, _ := NewHTTPEmbedder()
//	index := NewWeaviateIndex(client, embedder)
//	snippets, err := index.Search(ctx, parsed, 60)
type WeaviateIndex struct {
	client   *weaviate.Client
	embedder EmbeddingProvider
}

// NewWeaviateIndex creates a semantic index backed by Weaviate.
//
// # Inputs
//
//   - client: Weaviate client for database access.
//   - embedder: Provider for computing query embeddings.
//
// # Outputs
//
//   - *WeaviateIndex: Ready to use index.
//
// # Assumptions
//
//   - Client is connected and authenticated to Weaviate.
//   - The CodeChunk class exists and holds vectors from the same embedding
//     model the embedder uses.
func NewWeaviateIndex(client *weaviate.Client, embedder EmbeddingProvider) *WeaviateIndex {
	return &WeaviateIndex{
		client:   client,
		embedder: embedder,
	}
}

// Search retrieves the snippets most similar to the query target.
//
// # Description
//
// Embeds query.Target, builds equality filters from any qualifiers, and
// runs a nearVector search on the CodeChunk class. Every returned object
// is decoded strictly; a single malformed chunk fails the whole search
// rather than silently dropping results.
//
// # Inputs
//
//   - ctx: Context for cancellation and timeout.
//   - query: Parsed query with target text and optional qualifiers.
//   - limit: Maximum number of snippets to return.
//
// # Outputs
//
//   - []datatypes.Snippet: Matching snippets, highest certainty first.
//   - error: Non-nil if embedding, the search, or decoding fails.
func (w *WeaviateIndex) Search(ctx context.Context, query datatypes.ParsedQuery, limit int) ([]datatypes.Snippet, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	slog.Debug("Searching code chunks",
		"target", query.Target,
		"limit", limit)

	vector, err := w.embedder.Embed(ctx, query.Target)
	if err != nil {
		slog.Error("Failed to embed query for code search", "error", err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	nearVector := w.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	// Note: We request certainty (always [0,1]) instead of distance which varies by metric
	fields := []graphql.Field{
		{Name: "text"},
		{Name: "lang"},
		{Name: "repo_name"},
		{Name: "repo_ref"},
		{Name: "relative_path"},
		{Name: "start_line"},
		{Name: "end_line"},
		{Name: "start_byte"},
		{Name: "end_byte"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	builder := w.client.GraphQL().Get().
		WithClassName("CodeChunk").
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(limit)

	if where := buildQualifierFilter(query); where != nil {
		builder = builder.WithWhere(where)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		slog.Error("Failed to search CodeChunk class", "error", err)
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.CodeChunkQueryResponse](result)
	if err != nil {
		slog.Error("Failed to parse code chunk results", "error", err)
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}

	snippets := make([]datatypes.Snippet, 0, len(parsed.Get.CodeChunk))
	for i, chunk := range parsed.Get.CodeChunk {
		snippet, err := chunk.ToSnippet()
		if err != nil {
			slog.Error("Rejecting malformed code chunk", "position", i, "error", err)
			return nil, fmt.Errorf("code chunk %d: %w", i, err)
		}
		snippets = append(snippets, snippet)
	}

	slog.Debug("Code search complete", "count", len(snippets))
	return snippets, nil
}

// buildQualifierFilter converts query qualifiers into a where filter.
// Returns nil when the query carries no qualifiers.
func buildQualifierFilter(query datatypes.ParsedQuery) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder

	if query.Repo != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"repo_name"}).
			WithOperator(filters.Equal).
			WithValueString(query.Repo))
	}
	if query.Lang != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"lang"}).
			WithOperator(filters.Equal).
			WithValueString(query.Lang))
	}
	if query.Path != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"relative_path"}).
			WithOperator(filters.Equal).
			WithValueString(query.Path))
	}
	if query.Branch != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"branch"}).
			WithOperator(filters.Equal).
			WithValueString(query.Branch))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().
			WithOperator(filters.And).
			WithOperands(operands)
	}
}

var _ SemanticIndex = (*WeaviateIndex)(nil)
