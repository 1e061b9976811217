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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseQuery_PlainQuery verifies that a query without qualifiers
// passes through whole as the target.
func TestParseQuery_PlainQuery(t *testing.T) {
	parsed, err := ParseQuery("where do we parse user queries")
	require.NoError(t, err)

	assert.Equal(t, "where do we parse user queries", parsed.Target)
	assert.Empty(t, parsed.Repo)
	assert.Empty(t, parsed.Lang)
	assert.Empty(t, parsed.Path)
	assert.Empty(t, parsed.Branch)
}

// TestParseQuery_Qualifiers verifies that recognized qualifiers are
// stripped from the target and captured in their fields.
func TestParseQuery_Qualifiers(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		expect ParsedQuery
	}{
		{
			name: "single repo qualifier",
			raw:  "repo:acme how is the index built",
			expect: ParsedQuery{
				Target: "how is the index built",
				Repo:   "acme",
			},
		},
		{
			name: "multiple qualifiers in any position",
			raw:  "lang:rust how do we rank path:server/ results",
			expect: ParsedQuery{
				Target: "how do we rank results",
				Lang:   "rust",
				Path:   "server/",
			},
		},
		{
			name: "qualifier keys are case-insensitive",
			raw:  "Repo:acme LANG:go clear search history",
			expect: ParsedQuery{
				Target: "clear search history",
				Repo:   "acme",
				Lang:   "go",
			},
		},
		{
			name: "last occurrence of a key wins",
			raw:  "repo:first repo:second what changed",
			expect: ParsedQuery{
				Target: "what changed",
				Repo:   "second",
			},
		},
		{
			name: "branch qualifier",
			raw:  "branch:main where is retry logic",
			expect: ParsedQuery{
				Target: "where is retry logic",
				Branch: "main",
			},
		},
		{
			name: "empty qualifier value is dropped",
			raw:  "repo: how does startup work",
			expect: ParsedQuery{
				Target: "how does startup work",
			},
		},
		{
			name: "unrecognized keys stay in the target",
			raw:  "http: connection reset",
			expect: ParsedQuery{
				Target: "http: connection reset",
			},
		},
		{
			name: "extra whitespace is collapsed",
			raw:  "  repo:acme   what   is   this  ",
			expect: ParsedQuery{
				Target: "what is this",
				Repo:   "acme",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseQuery(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, parsed)
		})
	}
}

// TestParseQuery_MissingTarget verifies that queries reduced to nothing
// after qualifier stripping are rejected as user errors.
func TestParseQuery_MissingTarget(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty string", raw: ""},
		{name: "whitespace only", raw: "   \t  "},
		{name: "qualifiers only", raw: "repo:acme lang:rust"},
		{name: "empty qualifier only", raw: "repo:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuery(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingTarget)
		})
	}
}
