// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search provides semantic retrieval of indexed code snippets.
//
// # Description
//
// This package wraps the vector index that the ingestion side populates
// with CodeChunk objects. A query's free-text target is embedded through
// an EmbeddingProvider and matched against stored chunk vectors; any
// repo/lang/path/branch qualifiers from the query become equality filters
// so the vector search only ranks chunks the user asked about.
//
// # Thread Safety
//
// All implementations are safe for concurrent use.
package search

import (
	"context"

	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
)

// SemanticIndex defines the interface for retrieving code snippets relevant
// to a query.
//
// # Description
//
// SemanticIndex performs approximate nearest-neighbor retrieval over the
// indexed code corpus. Implementations return up to limit snippets with
// their similarity scores populated; fewer (including zero) results is not
// an error at this layer.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
//
// # Example
//
//	index := NewWeaviateIndex(client, embedder)
//	snippets, err := index.Search(ctx, parsed, 60)
//	if err != nil {
//	    // Handle error - embedding or index failure
//	}
type SemanticIndex interface {
	// Search retrieves the snippets most similar to the query target.
	//
	// # Inputs
	//
	//   - ctx: Context for cancellation and timeout.
	//   - query: Parsed query; Target is embedded, qualifiers become filters.
	//   - limit: Maximum number of snippets to return.
	//
	// # Outputs
	//
	//   - []datatypes.Snippet: Matching snippets, highest similarity first.
	//   - error: Non-nil if embedding, the index call, or result decoding fails.
	Search(ctx context.Context, query datatypes.ParsedQuery, limit int) ([]datatypes.Snippet, error)
}

// EmbeddingProvider defines the interface for computing text embeddings.
//
// # Description
//
// EmbeddingProvider wraps calls to the embedding sidecar to convert query
// text into the vector representation the index was built with. This
// abstraction allows for easy mocking in tests and swapping embedding
// backends.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type EmbeddingProvider interface {
	// Embed computes a vector embedding for the given text.
	//
	// # Inputs
	//
	//   - ctx: Context for cancellation and timeout.
	//   - text: The text to embed.
	//
	// # Outputs
	//
	//   - []float32: The embedding vector with dimension matching the model.
	//   - error: Non-nil if embedding fails (network error, model error).
	//
	// # Assumptions
	//
	//   - The embedding model matches the one used at indexing time.
	Embed(ctx context.Context, text string) ([]float32, error)
}
