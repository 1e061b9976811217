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
	"sort"

	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
)

// SnippetCount is the shortlist size: at most this many snippets survive
// ranking and appear in the selection prompt.
const SnippetCount = 15

// FileGroup collects the snippets that landed in one source file.
type FileGroup struct {
	RelativePath string
	Snippets     []datatypes.Snippet
}

// GroupByPath partitions snippets by relative path.
//
// Groups appear in first-appearance order and snippets keep their arrival
// order within each group, so the same input always produces the same
// groups in the same order.
func GroupByPath(snippets []datatypes.Snippet) []FileGroup {
	indexByPath := make(map[string]int, len(snippets))
	groups := make([]FileGroup, 0, len(snippets))

	for _, snippet := range snippets {
		idx, ok := indexByPath[snippet.RelativePath]
		if !ok {
			idx = len(groups)
			indexByPath[snippet.RelativePath] = idx
			groups = append(groups, FileGroup{RelativePath: snippet.RelativePath})
		}
		groups[idx].Snippets = append(groups[idx].Snippets, snippet)
	}
	return groups
}

// ResolveOverlaps drops snippets whose line ranges overlap another snippet
// from the same file.
//
// # Description
//
// The group is sorted by ascending end line (stable, so equal end lines
// keep their arrival order). The first snippet is always kept; each later
// snippet survives only when its start line is strictly greater than the
// end line of the last kept snippet. Touching ranges count as overlapping.
// The kept subset is returned sorted by ascending score, again stably.
func ResolveOverlaps(group FileGroup) []datatypes.Snippet {
	if len(group.Snippets) == 0 {
		return nil
	}

	byEndLine := make([]datatypes.Snippet, len(group.Snippets))
	copy(byEndLine, group.Snippets)
	sort.SliceStable(byEndLine, func(i, j int) bool {
		return byEndLine[i].EndLine < byEndLine[j].EndLine
	})

	kept := make([]datatypes.Snippet, 0, len(byEndLine))
	kept = append(kept, byEndLine[0])
	for _, next := range byEndLine[1:] {
		if next.StartLine <= kept[len(kept)-1].EndLine {
			continue
		}
		kept = append(kept, next)
	}

	if dropped := len(byEndLine) - len(kept); dropped > 0 {
		slog.Debug("Dropped overlapping snippets",
			"relative_path", group.RelativePath,
			"count", dropped)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score < kept[j].Score
	})
	return kept
}

// RankAndTruncate resolves overlaps in every group, flattens the
// survivors, orders them by ascending score, and caps the result at
// SnippetCount.
func RankAndTruncate(groups []FileGroup) []datatypes.Snippet {
	var snippets []datatypes.Snippet
	for _, group := range groups {
		resolved := ResolveOverlaps(group)
		slog.Debug("Snippets after de-overlap",
			"relative_path", group.RelativePath,
			"count", len(resolved))
		snippets = append(snippets, resolved...)
	}

	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Score < snippets[j].Score
	})

	if len(snippets) > SnippetCount {
		snippets = snippets[:SnippetCount]
	}
	return snippets
}
