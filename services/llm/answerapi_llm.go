package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("aleutian.llm")

// completionRequest is the wire shape the answer API accepts.
type completionRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

// AnswerAPIClient talks to the hosted answer API, a thin proxy in front of
// the completion model. One POST endpoint, raw completion text back in the
// response body.
type AnswerAPIClient struct {
	httpClient *http.Client
	host       string
}

// NewAnswerAPIClient builds a client from ANSWER_API_BASE. The /q path
// segment is appended here so configuration carries only the base URL.
func NewAnswerAPIClient() (*AnswerAPIClient, error) {
	base := os.Getenv("ANSWER_API_BASE")
	if base == "" {
		return nil, fmt.Errorf("ANSWER_API_BASE environment variable not set")
	}
	base = strings.TrimSuffix(base, "/")
	slog.Info("Initializing answer API client", "base_url", base)
	return &AnswerAPIClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		host:       base + "/q",
	}, nil
}

// Name implements the CompletionClient interface.
func (a *AnswerAPIClient) Name() string {
	return "answerapi"
}

// Complete implements the CompletionClient interface.
//
// A 503 from the answer API means the model pool is saturated; that is
// surfaced as ErrOverloaded so the handler can answer with its own 503.
// Every other non-200 status is a generic failure.
func (a *AnswerAPIClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, span := tracer.Start(ctx, "AnswerAPIClient.Complete")
	defer span.End()
	span.SetAttributes(attribute.Int("llm.max_tokens", maxTokens))

	reqBodyBytes, err := json.Marshal(completionRequest{
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to marshal request to answer API: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.host, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to create request to answer API: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Answer API call failed", "error", err)
		return "", fmt.Errorf("answer API call failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to read answer API response: %w", err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		span.SetStatus(codes.Error, "overloaded")
		slog.Warn("Answer API is overloaded", "status_code", resp.StatusCode)
		return "", fmt.Errorf("answer API returned status %d: %w", resp.StatusCode, ErrOverloaded)
	}
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.StatusCode))
		slog.Error("Answer API returned an error", "status_code", resp.StatusCode,
			"response", string(bodyBytes))
		return "", fmt.Errorf("answer API failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return string(bodyBytes), nil
}

var _ CompletionClient = (*AnswerAPIClient)(nil)
