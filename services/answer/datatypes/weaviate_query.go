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
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/weaviate/weaviate/entities/models"
)

// =============================================================================
// Generic GraphQL Response Parser
// =============================================================================

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target type.
//
// # Description
//
// This generic function encapsulates the marshal/unmarshal pattern required to
// convert Weaviate's dynamic response (map[string]models.JSONObject) into a
// strongly-typed Go struct. The target type T must have json tags matching
// the expected response shape.
//
// # Type Parameters
//
//   - T: The target struct type with json tags matching the response shape.
//
// # Inputs
//
//   - resp: The GraphQL response from Weaviate client's Do() method.
//
// # Outputs
//
//   - *T: Pointer to the parsed struct.
//   - error: Non-nil if response is nil, carries GraphQL errors, or parsing fails.
//
// # Example
//
//	resp, err := client.GraphQL().Get().WithClassName("CodeChunk").Do(ctx)
//	if err != nil { ... }
//
//	parsed, err := ParseGraphQLResponse[CodeChunkQueryResponse](resp)
//	if err != nil { ... }
//
//	for _, c := range parsed.Get.CodeChunk {
//	    fmt.Println(c.RelativePath)
//	}
//
// # Limitations
//
//   - Requires the target type to exactly match the expected response structure.
//   - Type mismatches will result in zero values, not errors; pair with
//     field validation on the result type.
//
// # Assumptions
//
//   - The response Data field is JSON-marshalable.
//   - The target type T has correct json tags.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL query error: %s", resp.Errors[0].Message)
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// =============================================================================
// Shared Validator Instance
// =============================================================================

// resultValidate checks decoded search payloads before they enter the
// pipeline. A chunk that fails validation aborts the whole request: a
// half-decoded snippet would corrupt overlap and growth math downstream.
var resultValidate = validator.New()

// =============================================================================
// CodeChunk Query Types
// =============================================================================

// CodeChunkQueryResponse represents the response from querying the CodeChunk class.
type CodeChunkQueryResponse struct {
	Get struct {
		CodeChunk []CodeChunkResult `json:"CodeChunk"`
	} `json:"Get"`
}

// CodeChunkResult is one raw search hit from the CodeChunk class.
//
// # Description
//
// The indexer writes positional fields as strings, so they arrive here
// as text and are converted by ToSnippet. Every field is required: the
// index is the single source of truth for snippet geometry, and a
// payload missing any of these cannot be grown or deduplicated safely.
type CodeChunkResult struct {
	Lang         string `json:"lang" validate:"required"`
	RepoName     string `json:"repo_name" validate:"required"`
	RepoRef      string `json:"repo_ref" validate:"required"`
	RelativePath string `json:"relative_path" validate:"required"`
	Text         string `json:"text" validate:"required"`
	StartLine    string `json:"start_line" validate:"required"`
	EndLine      string `json:"end_line" validate:"required"`
	StartByte    string `json:"start_byte" validate:"required"`
	EndByte      string `json:"end_byte" validate:"required"`
	Additional   struct {
		Certainty *float32 `json:"certainty" validate:"required"`
	} `json:"_additional"`
}

// ToSnippet converts a raw search hit into a Snippet.
//
// # Description
//
// Validates that all payload fields are present, then parses the
// positional fields. Any missing or malformed field fails the
// conversion; callers treat that as an internal error rather than
// skipping the hit.
//
// # Outputs
//
//   - Snippet: The typed snippet with parsed positions and score.
//   - error: Non-nil when a payload field is absent or not numeric.
func (r *CodeChunkResult) ToSnippet() (Snippet, error) {
	if err := resultValidate.Struct(r); err != nil {
		return Snippet{}, fmt.Errorf("incomplete search payload for %q: %w", r.RelativePath, err)
	}

	startLine, err := strconv.Atoi(r.StartLine)
	if err != nil {
		return Snippet{}, fmt.Errorf("bad start_line %q: %w", r.StartLine, err)
	}
	endLine, err := strconv.Atoi(r.EndLine)
	if err != nil {
		return Snippet{}, fmt.Errorf("bad end_line %q: %w", r.EndLine, err)
	}
	startByte, err := strconv.Atoi(r.StartByte)
	if err != nil {
		return Snippet{}, fmt.Errorf("bad start_byte %q: %w", r.StartByte, err)
	}
	endByte, err := strconv.Atoi(r.EndByte)
	if err != nil {
		return Snippet{}, fmt.Errorf("bad end_byte %q: %w", r.EndByte, err)
	}

	return Snippet{
		Lang:         r.Lang,
		RepoName:     r.RepoName,
		RepoRef:      r.RepoRef,
		RelativePath: r.RelativePath,
		Text:         r.Text,
		StartLine:    startLine,
		EndLine:      endLine,
		StartByte:    startByte,
		EndByte:      endByte,
		Score:        *r.Additional.Certainty,
	}, nil
}

// =============================================================================
// SourceFile Query Types
// =============================================================================

// SourceFileQueryResponse represents the response from querying the SourceFile class.
type SourceFileQueryResponse struct {
	Get struct {
		SourceFile []SourceFileResult `json:"SourceFile"`
	} `json:"Get"`
}

// SourceFileResult is one stored file body.
type SourceFileResult struct {
	RepoRef      string `json:"repo_ref"`
	RelativePath string `json:"relative_path"`
	Content      string `json:"content"`
}
