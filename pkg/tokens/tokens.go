// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tokens provides prompt token counting for LLM budget math.
//
// The answer pipeline sizes code windows and completion budgets against a
// fixed model context window, so it needs a counter that is cheap, local,
// and never fails mid-request. This package wraps langchaingo's tokenizer
// tables (tiktoken encodings) behind a small interface so tests can swap
// in deterministic counters.
package tokens

import (
	"github.com/tmc/langchaingo/llms"
)

// DefaultModel is the tokenizer table used when none is configured. The
// completion backend speaks the davinci-era API, so budgets are computed
// against its p50k_base encoding.
const DefaultModel = "text-davinci-003"

// Counter reports how many tokens a piece of text occupies.
//
// # Description
//
// Counter is intentionally infallible: budget math runs on every request
// and a tokenizer error mid-pipeline would be unactionable. Implementations
// must fall back to an estimate rather than fail.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Counter interface {
	// Count returns the token count for text. Never panics, never fails;
	// on unknown models implementations return a byte-length estimate.
	Count(text string) int
}

// ModelCounter counts tokens using the encoding table for a fixed model id.
type ModelCounter struct {
	model string
}

// NewCounter returns a Counter for the given model id. An empty model
// selects DefaultModel.
func NewCounter(model string) *ModelCounter {
	if model == "" {
		model = DefaultModel
	}
	return &ModelCounter{model: model}
}

// Count returns the token count of text under the counter's model
// encoding. langchaingo falls back to an internal estimate when the
// model id has no known encoding, so this never fails.
func (c *ModelCounter) Count(text string) int {
	model := c.model
	if model == "" {
		model = DefaultModel
	}
	return llms.CountTokens(model, text)
}

var _ Counter = (*ModelCounter)(nil)
