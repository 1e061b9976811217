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
	"strings"

	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
)

// promptDelimiter separates snippet blocks in the selection prompt.
const promptDelimiter = "######"

// BuildSelectPrompt renders the snippet-selection prompt: every candidate
// tagged with its repository, path, language, and zero-based index,
// followed by the task instruction and one worked example.
//
// The completion backend is calibrated against these exact bytes,
// spacing included. Do not reword or reflow the instruction text.
func BuildSelectPrompt(query string, snippets []datatypes.Snippet) string {
	var prompt strings.Builder

	for i, snippet := range snippets {
		fmt.Fprintf(&prompt, "Repository: %s\nPath: %s\nLanguage: %s\nIndex: %d\n\n%s\n%s\n",
			snippet.RepoName, snippet.RelativePath, snippet.Lang, i, snippet.Text, promptDelimiter)
	}

	fmt.Fprintf(&prompt,
		"Above are %d code snippets separated by %q. "+
			"Your job is to select the snippet that best answers the question. "+
			"Replywith a single number indicating the index of the snippet in the list."+
			"If none of the snippets seem relevant, reply with %q.\n\n"+
			"Q:What icon do we use to clear search history?\nA:3\n\n"+
			"Q:%s\nA:",
		len(snippets), promptDelimiter, "0", query)

	return prompt.String()
}

// BuildExplainPrompt renders the explanation prompt around the grown
// snippet. Same calibration caveat as BuildSelectPrompt.
func BuildExplainPrompt(query string, snippet datatypes.Snippet) string {
	return fmt.Sprintf(
		"File: %s\n\n%s\n\n#####\n\n"+
			"Above is a code snippet. Answer the user's question with a detailed response. "+
			"Separate each function out and explain why it is relevant. "+
			"Format your response in GitHub markdown with code blocks annotated"+
			"with programming language. Include the path of the file.\n\n"+
			"Q:%s\nA:",
		snippet.RelativePath, snippet.Text, query)
}
