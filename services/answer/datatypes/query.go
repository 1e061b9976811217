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
	"errors"
	"strings"
)

// ErrMissingTarget is returned when a query contains only qualifiers and
// no searchable text. Surfaced to clients as a user error.
var ErrMissingTarget = errors.New("query contains no search target")

// ParsedQuery is a user query with scoping qualifiers split out from the
// natural language target.
//
// # Description
//
// Queries may scope the search with whitespace-delimited qualifiers of
// the form key:value. Recognized keys are repo, lang, path, and branch;
// keys are matched case-insensitively and the last occurrence of a key
// wins. Everything else is the semantic target sent to the vector index.
//
// # Example
//
//	q, err := ParseQuery("repo:acme lang:rust where do we parse queries")
//	// q.Repo == "acme", q.Lang == "rust"
//	// q.Target == "where do we parse queries"
type ParsedQuery struct {
	// Target is the natural language portion of the query.
	Target string

	// Repo restricts the search to a single repository name.
	Repo string

	// Lang restricts the search to a single language.
	Lang string

	// Path restricts the search to a single file path.
	Path string

	// Branch selects the indexed ref to search. Empty means the default
	// indexed ref.
	Branch string
}

// ParseQuery splits raw into qualifiers and a search target.
//
// Returns ErrMissingTarget when stripping qualifiers leaves no query
// text. Qualifier values may be empty ("repo:") and are then ignored.
func ParseQuery(raw string) (ParsedQuery, error) {
	var parsed ParsedQuery
	var target []string

	for _, token := range strings.Fields(raw) {
		key, value, isQualifier := splitQualifier(token)
		if !isQualifier {
			target = append(target, token)
			continue
		}
		if value == "" {
			continue
		}
		switch key {
		case "repo":
			parsed.Repo = value
		case "lang":
			parsed.Lang = value
		case "path":
			parsed.Path = value
		case "branch":
			parsed.Branch = value
		}
	}

	parsed.Target = strings.Join(target, " ")
	if parsed.Target == "" {
		return ParsedQuery{}, ErrMissingTarget
	}
	return parsed, nil
}

// splitQualifier reports whether token is a recognized key:value
// qualifier. Unrecognized keys are left in the target so queries like
// "http: connection reset" still search verbatim.
func splitQualifier(token string) (key, value string, ok bool) {
	idx := strings.Index(token, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.ToLower(token[:idx])
	switch key {
	case "repo", "lang", "path", "branch":
		return key, token[idx+1:], true
	}
	return "", "", false
}
