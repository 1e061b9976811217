// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire types shared by the answer service:
// request bindings, response payloads, query parsing, and the typed
// decode layer over Weaviate GraphQL results.
package datatypes

// =============================================================================
// Request Types
// =============================================================================

// AnswerRequest is the query-string binding for GET /q.
//
// # Fields
//
//   - Q: The natural language query, possibly carrying qualifiers
//     (repo:, lang:, path:, branch:). Required.
//   - UserID: Caller identity recorded with the query event. Required.
//   - Limit: Requested result count. Advisory; the pipeline caps results
//     at SnippetCount regardless. Defaults to 10 when omitted.
type AnswerRequest struct {
	Q      string `form:"q" binding:"required"`
	UserID string `form:"user_id" binding:"required"`
	Limit  int    `form:"limit" binding:"omitempty,gt=0"`
}

// =============================================================================
// Response Types
// =============================================================================

// Snippet is one retrieved code span, positioned by both line and byte
// offsets into its source file. Byte offsets drive context growth; line
// numbers drive overlap resolution and presentation.
type Snippet struct {
	Lang         string  `json:"lang"`
	RepoName     string  `json:"repo_name"`
	RepoRef      string  `json:"repo_ref"`
	RelativePath string  `json:"relative_path"`
	Text         string  `json:"text"`
	StartLine    int     `json:"start_line"`
	EndLine      int     `json:"end_line"`
	StartByte    int     `json:"start_byte"`
	EndByte      int     `json:"end_byte"`
	Score        float32 `json:"score"`
}

// Selection carries the explained answer. Index is always 0: the pipeline
// moves the chosen snippet to the front of the list before responding, so
// clients render snippets[0] alongside the answer text.
type Selection struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
	ID     string `json:"id"`
}

// AnswerResponse is the success payload for GET /q.
type AnswerResponse struct {
	Snippets  []Snippet `json:"snippets"`
	Selection Selection `json:"selection"`
}

// =============================================================================
// Error Envelope
// =============================================================================

// Error kinds surfaced to clients. Internal failures stay opaque; the
// kind tells the caller whether retrying or rephrasing can help.
const (
	ErrorKindUser     = "user"
	ErrorKindInternal = "internal"
	ErrorKindUpstream = "upstream"
)

// ErrorResponse is the error payload for all non-2xx answers.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
