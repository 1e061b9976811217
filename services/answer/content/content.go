// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package content fetches whole source files from the SourceFile class.
//
// # Description
//
// The ingestion side stores one SourceFile object per (repo_ref,
// relative_path) pair, carrying the file's full text. The answer pipeline
// needs that text to grow a selected snippet's context beyond the chunk
// boundaries the indexer chose.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("aleutian.answer.content")

// ErrFileNotFound indicates the content index holds no object for the
// requested (repo_ref, relative_path) pair.
var ErrFileNotFound = errors.New("file not found in content index")

// FileStore defines the interface for fetching full file bodies.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type FileStore interface {
	// FetchContent returns the full text of one indexed file.
	//
	// # Inputs
	//
	//   - ctx: Context for cancellation and timeout.
	//   - repoRef: Repository reference the snippet came from.
	//   - relativePath: Path of the file within that repository.
	//
	// # Outputs
	//
	//   - string: The file's full text.
	//   - error: ErrFileNotFound (wrapped) when no object matches; other
	//     errors for transport or decode failures.
	FetchContent(ctx context.Context, repoRef string, relativePath string) (string, error)
}

// WeaviateStore implements FileStore against the SourceFile class.
//
// # Thread Safety
//
// WeaviateStore is safe for concurrent use. The underlying Weaviate client
// handles connection pooling.
type WeaviateStore struct {
	client *weaviate.Client
}

// NewWeaviateStore creates a file store backed by Weaviate.
func NewWeaviateStore(client *weaviate.Client) *WeaviateStore {
	return &WeaviateStore{client: client}
}

// FetchContent returns the full text of one indexed file.
//
// # Description
//
// Runs a filtered Get on the SourceFile class matching both repo_ref and
// relative_path. Exactly one object is expected; zero objects means the
// index and the content store disagree, which surfaces as ErrFileNotFound.
func (s *WeaviateStore) FetchContent(ctx context.Context, repoRef string, relativePath string) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchContent")
	defer span.End()

	slog.Debug("Fetching file content",
		"repo_ref", repoRef,
		"relative_path", relativePath)

	refFilter := filters.Where().
		WithPath([]string{"repo_ref"}).
		WithOperator(filters.Equal).
		WithValueString(repoRef)

	pathFilter := filters.Where().
		WithPath([]string{"relative_path"}).
		WithOperator(filters.Equal).
		WithValueString(relativePath)

	combinedFilter := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{refFilter, pathFilter})

	fields := []graphql.Field{
		{Name: "repo_ref"},
		{Name: "relative_path"},
		{Name: "content"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName("SourceFile").
		WithFields(fields...).
		WithWhere(combinedFilter).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		slog.Error("Failed to query SourceFile class", "error", err)
		return "", fmt.Errorf("weaviate content fetch failed: %w", err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.SourceFileQueryResponse](result)
	if err != nil {
		slog.Error("Failed to parse file content results", "error", err)
		return "", fmt.Errorf("failed to parse results: %w", err)
	}

	if len(parsed.Get.SourceFile) == 0 {
		slog.Error("No stored content for indexed file",
			"repo_ref", repoRef,
			"relative_path", relativePath)
		return "", fmt.Errorf("%s in %s: %w", relativePath, repoRef, ErrFileNotFound)
	}

	return parsed.Get.SourceFile[0].Content, nil
}

var _ FileStore = (*WeaviateStore)(nil)
