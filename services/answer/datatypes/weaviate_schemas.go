// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// GetCodeChunkSchema returns the schema for the CodeChunk class.
//
// # Description
//
// CodeChunk holds one embedded span of source code. The indexer writes
// positional fields (start_line, end_line, start_byte, end_byte) as
// strings; they are parsed on read by CodeChunkResult.ToSnippet. Vectors
// are computed upstream, so the class carries no vectorizer.
func GetCodeChunkSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       "CodeChunk",
		Description: "An embedded span of source code with line and byte positions.",
		Vectorizer:  "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{
			IndexNullState:  true,
			IndexTimestamps: true,
		},
		Properties: []*models.Property{
			{
				Name:         "text",
				DataType:     []string{"text"},
				Description:  "The code span itself.",
				Tokenization: "word",
			},
			{
				Name:            "lang",
				DataType:        []string{"text"},
				Description:     "Normalized language name for the file.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "repo_name",
				DataType:        []string{"text"},
				Description:     "Human-readable repository name.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "repo_ref",
				DataType:        []string{"text"},
				Description:     "Stable repository reference used to fetch file content.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "relative_path",
				DataType:        []string{"text"},
				Description:     "Path of the file within the repository.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "start_line",
				DataType:    []string{"text"},
				Description: "First line of the span (0-based, stored as string by the indexer).",
			},
			{
				Name:        "end_line",
				DataType:    []string{"text"},
				Description: "Last line of the span (stored as string by the indexer).",
			},
			{
				Name:        "start_byte",
				DataType:    []string{"text"},
				Description: "Byte offset of the span start within the file.",
			},
			{
				Name:        "end_byte",
				DataType:    []string{"text"},
				Description: "Byte offset one past the span end.",
			},
			{
				Name:            "branch",
				DataType:        []string{"text"},
				Description:     "Indexed ref this span was taken from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

// GetSourceFileSchema returns the schema for the SourceFile class.
//
// # Description
//
// SourceFile stores whole file bodies so the answer pipeline can widen a
// snippet beyond the indexed span without touching the working tree.
func GetSourceFileSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       "SourceFile",
		Description: "Full file content keyed by repository reference and path.",
		Vectorizer:  "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{
			IndexTimestamps: true,
		},
		Properties: []*models.Property{
			{
				Name:            "repo_ref",
				DataType:        []string{"text"},
				Description:     "Stable repository reference.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "relative_path",
				DataType:        []string{"text"},
				Description:     "Path of the file within the repository.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The complete file body.",
				Tokenization: "word",
			},
			{
				Name:            "branch",
				DataType:        []string{"text"},
				Description:     "Indexed ref this content was taken from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

// EnsureWeaviateSchema creates any missing answer-service classes.
//
// # Description
//
// Idempotent: classes that already exist are left untouched. Creation
// failures return an error so callers can decide whether the service can
// start without the class.
func EnsureWeaviateSchema(client *weaviate.Client) error {
	schemaGetters := []func() *models.Class{
		GetCodeChunkSchema,
		GetSourceFileSchema,
	}

	for _, getSchema := range schemaGetters {
		class := getSchema()
		slog.Info("Checking schema", "class", class.Class)

		// The class getter errors when the class does not exist yet.
		_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
		if err != nil {
			slog.Info("Schema not found, creating it...", "class", class.Class)
			if err := client.Schema().ClassCreator().WithClass(class).Do(context.Background()); err != nil {
				return fmt.Errorf("failed to create schema for class %s: %w", class.Class, err)
			}
			slog.Info("Successfully created schema", "class", class.Class)
		} else {
			slog.Info("Schema already exists", "class", class.Class)
		}
	}

	return nil
}
