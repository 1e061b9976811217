// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin handlers for the answer service.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianSearch/services/answer/content"
	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
	"github.com/AleutianAI/AleutianSearch/services/answer/middleware"
	"github.com/AleutianAI/AleutianSearch/services/answer/observability"
	"github.com/AleutianAI/AleutianSearch/services/answer/pipeline"
	"github.com/AleutianAI/AleutianSearch/services/llm"
)

var tracer = otel.Tracer("aleutian.answer.handlers")

// defaultLimit fills AnswerRequest.Limit when the caller omits it.
const defaultLimit = 10

// Answerer runs one answer request end to end. *pipeline.Pipeline is the
// production implementation; tests substitute fakes.
type Answerer interface {
	Answer(ctx context.Context, rawQuery, userID string) (*datatypes.AnswerResponse, error)
}

// HandleAnswer serves GET /q: bind the query parameters, run the answer
// pipeline, and map failures onto the error envelope. Client-caused
// failures return 400, backend overload returns 503 with a retryable
// message, and everything else is an opaque 500.
func HandleAnswer(answerer Answerer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleAnswer")
		defer span.End()

		start := time.Now()
		success := false
		defer func() {
			if m := observability.DefaultMetrics; m != nil {
				m.RecordRequest(observability.EndpointAnswer, success)
			}
		}()

		requestID := middleware.GetRequestID(c)

		var req datatypes.AnswerRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind answer request", "error", err, "request_id", requestID)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(observability.EndpointAnswer, observability.ErrorCodeValidation)
			}
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Kind:    datatypes.ErrorKindUser,
				Message: "missing required query parameters: q, user_id",
			})
			return
		}
		if req.Limit == 0 {
			req.Limit = defaultLimit
		}

		span.SetAttributes(
			attribute.String("user_id", req.UserID),
			attribute.Int("limit", req.Limit),
		)

		resp, err := answerer.Answer(ctx, req.Q, req.UserID)
		if err != nil {
			status, envelope, code := mapError(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Answer request failed",
				"error", err,
				"status", status,
				"request_id", requestID)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(observability.EndpointAnswer, code)
			}
			c.JSON(status, envelope)
			return
		}

		success = true
		slog.Info("Answer request complete",
			"user_id", req.UserID,
			"snippets", len(resp.Snippets),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID)
		c.JSON(http.StatusOK, resp)
	}
}

// mapError translates a pipeline failure into an HTTP status, a client
// envelope, and a metrics code. Internal failure detail never reaches
// the client; operators get it from logs and traces.
func mapError(err error) (int, datatypes.ErrorResponse, observability.ErrorCode) {
	internal := datatypes.ErrorResponse{
		Kind:    datatypes.ErrorKindInternal,
		Message: "internal server error",
	}

	switch {
	case errors.Is(err, datatypes.ErrMissingTarget):
		return http.StatusBadRequest, datatypes.ErrorResponse{
			Kind:    datatypes.ErrorKindUser,
			Message: "query contains no search target",
		}, observability.ErrorCodeValidation
	case errors.Is(err, llm.ErrOverloaded):
		return http.StatusServiceUnavailable, datatypes.ErrorResponse{
			Kind:    datatypes.ErrorKindUpstream,
			Message: "service is currently overloaded",
		}, observability.ErrorCodeOverloaded
	case errors.Is(err, pipeline.ErrNoResults):
		return http.StatusInternalServerError, internal, observability.ErrorCodeNoResults
	case errors.Is(err, pipeline.ErrOutOfBoundsIndex):
		return http.StatusInternalServerError, internal, observability.ErrorCodeBadIndex
	case errors.Is(err, content.ErrFileNotFound):
		return http.StatusInternalServerError, internal, observability.ErrorCodeContentMissing
	default:
		return http.StatusInternalServerError, internal, observability.ErrorCodeInternal
	}
}
