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

import "errors"

// Sentinel errors the transport layer maps to HTTP statuses. Everything
// else coming out of the pipeline is an opaque internal failure.
var (
	// ErrNoResults means the semantic search produced no usable snippets
	// after overlap resolution.
	ErrNoResults = errors.New("semantic search returned no snippets")

	// ErrOutOfBoundsIndex means the selection model answered with an index
	// past the end of the ranked snippet list.
	ErrOutOfBoundsIndex = errors.New("answer-api returned out-of-bounds index")
)
