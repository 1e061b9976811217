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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
)

func snip(path string, startLine, endLine int, score float32) datatypes.Snippet {
	return datatypes.Snippet{
		RelativePath: path,
		StartLine:    startLine,
		EndLine:      endLine,
		Score:        score,
		Text:         fmt.Sprintf("%s:%d-%d", path, startLine, endLine),
	}
}

func TestGroupByPath_FirstAppearanceOrder(t *testing.T) {
	snippets := []datatypes.Snippet{
		snip("b.go", 1, 5, 0.1),
		snip("a.go", 1, 5, 0.2),
		snip("b.go", 10, 15, 0.3),
		snip("c.go", 1, 5, 0.4),
	}

	groups := GroupByPath(snippets)

	require.Len(t, groups, 3)
	assert.Equal(t, "b.go", groups[0].RelativePath)
	assert.Equal(t, "a.go", groups[1].RelativePath)
	assert.Equal(t, "c.go", groups[2].RelativePath)
	require.Len(t, groups[0].Snippets, 2)
	assert.Equal(t, 1, groups[0].Snippets[0].StartLine)
	assert.Equal(t, 10, groups[0].Snippets[1].StartLine)
}

func TestGroupByPath_Empty(t *testing.T) {
	assert.Empty(t, GroupByPath(nil))
}

func TestResolveOverlaps_DropsOverlappingRanges(t *testing.T) {
	group := FileGroup{
		RelativePath: "a.py",
		Snippets: []datatypes.Snippet{
			snip("a.py", 1, 10, 0.9),
			snip("a.py", 5, 15, 0.8),
			snip("a.py", 20, 30, 0.95),
		},
	}

	kept := ResolveOverlaps(group)

	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].StartLine)
	assert.Equal(t, 10, kept[0].EndLine)
	assert.Equal(t, 20, kept[1].StartLine)
	assert.Equal(t, 30, kept[1].EndLine)
}

func TestResolveOverlaps_TouchingRangesOverlap(t *testing.T) {
	group := FileGroup{
		RelativePath: "a.go",
		Snippets: []datatypes.Snippet{
			snip("a.go", 1, 10, 0.5),
			snip("a.go", 10, 20, 0.6),
		},
	}

	kept := ResolveOverlaps(group)

	require.Len(t, kept, 1)
	assert.Equal(t, 1, kept[0].StartLine)
}

func TestResolveOverlaps_AdjacentRangesKept(t *testing.T) {
	group := FileGroup{
		RelativePath: "a.go",
		Snippets: []datatypes.Snippet{
			snip("a.go", 1, 10, 0.5),
			snip("a.go", 11, 20, 0.6),
		},
	}

	kept := ResolveOverlaps(group)

	assert.Len(t, kept, 2)
}

func TestResolveOverlaps_SortsKeptByAscendingScore(t *testing.T) {
	group := FileGroup{
		RelativePath: "a.go",
		Snippets: []datatypes.Snippet{
			snip("a.go", 20, 30, 0.9),
			snip("a.go", 1, 10, 0.3),
			snip("a.go", 40, 50, 0.6),
		},
	}

	kept := ResolveOverlaps(group)

	require.Len(t, kept, 3)
	assert.Equal(t, float32(0.3), kept[0].Score)
	assert.Equal(t, float32(0.6), kept[1].Score)
	assert.Equal(t, float32(0.9), kept[2].Score)
}

func TestResolveOverlaps_DeterministicOnRepeatedRuns(t *testing.T) {
	group := FileGroup{
		RelativePath: "a.go",
		Snippets: []datatypes.Snippet{
			snip("a.go", 10, 15, 0.5),
			snip("a.go", 1, 5, 0.5),
		},
	}

	first := ResolveOverlaps(group)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ResolveOverlaps(group))
	}
	require.Len(t, first, 2)
	assert.Equal(t, 1, first[0].StartLine)
	assert.Equal(t, 10, first[1].StartLine)
}

func TestResolveOverlaps_EmptyGroup(t *testing.T) {
	assert.Nil(t, ResolveOverlaps(FileGroup{RelativePath: "a.go"}))
}

func TestRankAndTruncate_FlattensAndResolvesPerFile(t *testing.T) {
	groups := GroupByPath([]datatypes.Snippet{
		snip("a.go", 1, 10, 0.4),
		snip("a.go", 5, 15, 0.2),
		snip("b.go", 1, 10, 0.3),
	})

	ranked := RankAndTruncate(groups)

	require.Len(t, ranked, 2)
	assert.Equal(t, "b.go", ranked[0].RelativePath)
	assert.Equal(t, "a.go", ranked[1].RelativePath)
}

func TestRankAndTruncate_AscendingScoreCapAtSnippetCount(t *testing.T) {
	var snippets []datatypes.Snippet
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("file%02d.go", i)
		score := float32(20-i) / 100.0
		snippets = append(snippets, snip(path, 1, 5, score))
	}

	ranked := RankAndTruncate(GroupByPath(snippets))

	require.Len(t, ranked, SnippetCount)
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
	assert.Equal(t, float32(0.01), ranked[0].Score)
	assert.Equal(t, float32(0.15), ranked[len(ranked)-1].Score)
}

func TestRankAndTruncate_StableForEqualScores(t *testing.T) {
	snippets := []datatypes.Snippet{
		snip("a.go", 1, 5, 0.5),
		snip("b.go", 1, 5, 0.5),
		snip("c.go", 1, 5, 0.5),
	}

	ranked := RankAndTruncate(GroupByPath(snippets))

	require.Len(t, ranked, 3)
	assert.Equal(t, "a.go", ranked[0].RelativePath)
	assert.Equal(t, "b.go", ranked[1].RelativePath)
	assert.Equal(t, "c.go", ranked[2].RelativePath)
}

func TestRankAndTruncate_FewerThanCapUnchanged(t *testing.T) {
	snippets := []datatypes.Snippet{
		snip("a.go", 1, 5, 0.9),
		snip("b.go", 1, 5, 0.1),
	}

	ranked := RankAndTruncate(GroupByPath(snippets))

	require.Len(t, ranked, 2)
	assert.Equal(t, "b.go", ranked[0].RelativePath)
}
