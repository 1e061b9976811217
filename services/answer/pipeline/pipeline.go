// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline runs the answer flow end to end: semantic search,
// overlap resolution and ranking, model-driven snippet selection, context
// growth, and the final explanation completion.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianSearch/pkg/tokens"
	"github.com/AleutianAI/AleutianSearch/services/answer/analytics"
	"github.com/AleutianAI/AleutianSearch/services/answer/content"
	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
	"github.com/AleutianAI/AleutianSearch/services/answer/observability"
	"github.com/AleutianAI/AleutianSearch/services/answer/search"
	"github.com/AleutianAI/AleutianSearch/services/llm"
)

var tracer = otel.Tracer("aleutian.answer.pipeline")

// searchOversample is how many candidates the index is asked for per
// shortlist slot, giving overlap resolution raw material to discard.
const searchOversample = 4

// Pipeline wires the answer flow's collaborators together. All external
// effects go through injected interfaces, so tests can run the whole
// flow against fakes.
type Pipeline struct {
	index    search.SemanticIndex
	files    content.FileStore
	client   llm.CompletionClient
	counter  tokens.Counter
	recorder analytics.Recorder
}

// New creates a Pipeline. Every collaborator is required.
func New(index search.SemanticIndex, files content.FileStore, client llm.CompletionClient, counter tokens.Counter, recorder analytics.Recorder) *Pipeline {
	return &Pipeline{
		index:    index,
		files:    files,
		client:   client,
		counter:  counter,
		recorder: recorder,
	}
}

// Answer runs one query through the full pipeline and returns the
// response payload.
//
// # Description
//
// The raw query is split into a search target and qualifiers, the
// semantic index is asked for candidates, and overlapping snippets are
// collapsed per file before ranking caps the shortlist at SnippetCount.
// The completion backend picks the most relevant snippet by index, the
// snippet's file is fetched so the window around it can grow toward the
// token budget, and a second completion explains the grown window. The
// chosen snippet moves to the front of the returned list, and a query
// event is queued for analytics.
//
// # Inputs
//
//   - ctx: Request context. Cancellation propagates to every backend call.
//   - rawQuery: The user's query as typed, qualifiers included.
//   - userID: Caller identity, echoed in the response and recorded with
//     the analytics event.
//
// # Outputs
//
//   - *datatypes.AnswerResponse: Ranked snippets with the selection at
//     index 0.
//   - error: datatypes.ErrMissingTarget, ErrNoResults, ErrOutOfBoundsIndex,
//     and llm.ErrOverloaded are matchable with errors.Is; anything else is
//     internal.
func (p *Pipeline) Answer(ctx context.Context, rawQuery, userID string) (*datatypes.AnswerResponse, error) {
	ctx, span := tracer.Start(ctx, "Answer")
	defer span.End()

	pipelineStart := time.Now()
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordStageDuration(observability.StagePipeline, time.Since(pipelineStart).Seconds())
		}
	}()

	parsed, err := datatypes.ParseQuery(rawQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Failed to parse the query", "error", err)
		return nil, err
	}

	slog.Info("Answering query", "user_id", userID, "target", parsed.Target)

	searchStart := time.Now()
	candidates, err := p.index.Search(ctx, parsed, searchOversample*SnippetCount)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordStageDuration(observability.StageSearch, time.Since(searchStart).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Semantic search failed", "error", err)
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	snippets := RankAndTruncate(GroupByPath(candidates))
	if len(snippets) == 0 {
		span.RecordError(ErrNoResults)
		span.SetStatus(codes.Error, ErrNoResults.Error())
		slog.Error("No snippets survived ranking", "target", parsed.Target)
		return nil, ErrNoResults
	}

	selectPrompt := BuildSelectPrompt(parsed.Target, snippets)
	slog.Debug("select prompt token count", "tokens_used", p.counter.Count(selectPrompt))

	selectStart := time.Now()
	rawSelection, err := p.client.Complete(ctx, selectPrompt, 1)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordCompletionLatency(p.client.Name(), observability.StageSelect, time.Since(selectStart).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Snippet selection failed", "error", err)
		return nil, fmt.Errorf("snippet selection failed: %w", err)
	}

	selected, err := parseSelection(rawSelection, len(snippets))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Unusable snippet selection", "error", err, "raw", rawSelection)
		return nil, err
	}
	slog.Info("Snippet selected",
		"index", selected,
		"relative_path", snippets[selected].RelativePath)

	fetchStart := time.Now()
	fileContent, err := p.files.FetchContent(ctx, snippets[selected].RepoRef, snippets[selected].RelativePath)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordStageDuration(observability.StageFetchContent, time.Since(fetchStart).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("File content fetch failed", "error", err)
		return nil, fmt.Errorf("file content fetch failed: %w", err)
	}

	growStart := time.Now()
	grown := GrowToBudget(fileContent, snippets[selected], p.counter)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordStageDuration(observability.StageGrow, time.Since(growStart).Seconds())
	}

	explainPrompt := BuildExplainPrompt(parsed.Target, grown)
	maxTokens := ExplainBudget(p.counter.Count(explainPrompt))

	explainStart := time.Now()
	explanation, err := p.client.Complete(ctx, explainPrompt, maxTokens)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordCompletionLatency(p.client.Name(), observability.StageExplain, time.Since(explainStart).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Snippet explanation failed", "error", err)
		return nil, fmt.Errorf("snippet explanation failed: %w", err)
	}

	p.recorder.RecordQuery(analytics.QueryEvent{
		UserID:               userID,
		Query:                rawQuery,
		SelectPrompt:         selectPrompt,
		RelevantSnippetIndex: selected,
		ExplainPrompt:        explainPrompt,
		Explanation:          explanation,
	})

	snippets[selected], snippets[0] = snippets[0], snippets[selected]

	return &datatypes.AnswerResponse{
		Snippets:  snippets,
		Selection: datatypes.Selection{Index: 0, Answer: explanation, ID: userID},
	}, nil
}

// parseSelection interprets the selection completion as an index into the
// ranked list. The reply is trimmed and parsed as an unsigned integer;
// a value past the end of the list is ErrOutOfBoundsIndex.
func parseSelection(raw string, count int) (int, error) {
	idx, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to parse completion %q as a snippet index: %w", raw, err)
	}
	if int(idx) >= count {
		return 0, fmt.Errorf("index %d with %d snippets: %w", idx, count, ErrOutOfBoundsIndex)
	}
	return int(idx), nil
}
