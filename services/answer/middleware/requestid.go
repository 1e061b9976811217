// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the answer service.
//
// Currently this is request-id propagation: every request gets a stable
// id that appears in logs, the response headers, and downstream handler
// context, so one query can be followed across services.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header the request id is read from and echoed to.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key for the request id. A package
// prefix keeps it from colliding with other context values.
const requestIDKey = "aleutian_request_id"

// RequestID creates a middleware that tags every request with an id.
//
// # Description
//
// An incoming X-Request-ID header is trusted and reused, so ids minted by
// an upstream proxy survive. Requests without one get a fresh UUID. The
// id is stored in the gin context for handlers and echoed on the response
// so callers can quote it in bug reports.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request id set by RequestID, or "" when the
// middleware did not run.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(requestIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
