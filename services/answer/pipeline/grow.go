// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"log/slog"

	"github.com/AleutianAI/AleutianSearch/pkg/tokens"
	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
)

// Token and window limits for the explanation call. The completion
// backend exposes a 4096-token context window shared between the prompt
// and the generated answer.
const (
	contextWindowTokens = 4096
	growTokenLimit      = 2000
	growSizeLimit       = 100
	growSizeStart       = 40
	growSizeStep        = 10
	maxCompletionTokens = 500
)

// Grow returns a window of content around one snippet's byte range,
// expanded by size lines in each direction.
//
// # Description
//
// The window start walks backward from the snippet's start byte past size
// newlines to land on the next one; that newline is included in the
// window. The window end walks forward from the end byte past size
// newlines to land on the next one; that newline is excluded. When either
// walk runs out of newlines the window extends to the file boundary.
// Byte offsets outside the file are clamped to its bounds first.
//
// Grow always works from the snippet's original offsets, so successive
// calls with increasing sizes yield nested windows of the same file.
func Grow(content string, snippet datatypes.Snippet, size int) string {
	startByte := clamp(snippet.StartByte, 0, len(content))
	endByte := clamp(snippet.EndByte, 0, len(content))

	newStart := 0
	seen := 0
	for i := startByte - 1; i >= 0; i-- {
		if content[i] != '\n' {
			continue
		}
		if seen == size {
			newStart = i
			break
		}
		seen++
	}

	newEnd := len(content)
	seen = 0
	for i := endByte; i < len(content); i++ {
		if content[i] != '\n' {
			continue
		}
		if seen == size {
			newEnd = i
			break
		}
		seen++
	}

	if newEnd < newStart {
		newEnd = newStart
	}
	return content[newStart:newEnd]
}

// GrowToBudget expands the snippet's window until it fills the token
// budget reserved for code context.
//
// Starting at a window size of 40 lines, the window is regrown in steps
// of 10. After each growth the slice itself is counted; the loop stops
// once the slice exceeds 2000 tokens or the window size passes 100 lines,
// and the slice that triggered the stop is kept. The returned snippet is
// a copy with only Text replaced; line and byte positions still describe
// the original chunk.
func GrowToBudget(content string, snippet datatypes.Snippet, counter tokens.Counter) datatypes.Snippet {
	growSize := growSizeStart
	var grownText string
	for {
		grownText = Grow(content, snippet, growSize)
		tokenCount := counter.Count(grownText)
		slog.Info("growing ...", "grow_size", growSize, "token_count", tokenCount)
		if tokenCount > growTokenLimit || growSize > growSizeLimit {
			break
		}
		growSize += growSizeStep
	}

	grown := snippet
	grown.Text = grownText
	return grown
}

// ExplainBudget computes the completion token budget left over once the
// explanation prompt has claimed its share of the context window.
//
// The remainder is floored at zero; an oversized prompt is logged and the
// request proceeds with the minimum budget rather than failing. The
// result is clamped into [1, 500].
func ExplainBudget(promptTokens int) int {
	slog.Info("input prompt token count", "tokens_used", promptTokens)

	budget := contextWindowTokens - promptTokens
	if budget <= 0 {
		budget = 0
		slog.Warn("prompt overshot token limit", "tokens_used", promptTokens)
	}

	if budget < 1 {
		budget = 1
	}
	if budget > maxCompletionTokens {
		budget = maxCompletionTokens
	}
	slog.Info("clamping max tokens", "max_tokens", budget)
	return budget
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
