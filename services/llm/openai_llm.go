package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_COMPLETION_MODEL")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from Podman Secrets")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	if model == "" {
		model = openai.GPT3TextDavinci003
		slog.Warn("OPENAI_COMPLETION_MODEL not set, defaulting to text-davinci-003")
	}
	slog.Info("Initializing OpenAI completion client", "model", model)
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Name implements the CompletionClient interface.
func (o *OpenAIClient) Name() string {
	return "openai"
}

// Complete implements the CompletionClient interface using the legacy
// completions API. The selection and explanation prompts are plain-text
// continuations ending in "A:", not chat turns, so the chat API's role
// framing would distort them.
func (o *OpenAIClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	slog.Debug("Requesting completion via OpenAI", "model", o.model, "max_tokens", maxTokens)
	resp, err := o.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:     o.model,
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && isOverloadedStatus(apiErr.HTTPStatusCode) {
			slog.Warn("OpenAI API is overloaded", "status_code", apiErr.HTTPStatusCode)
			return "", fmt.Errorf("OpenAI API returned status %d: %w", apiErr.HTTPStatusCode, ErrOverloaded)
		}
		slog.Error("OpenAI API call failed", "error", err)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return resp.Choices[0].Text, nil
}

// isOverloadedStatus reports whether a backend HTTP status means "try
// again later" rather than a hard failure.
func isOverloadedStatus(status int) bool {
	return status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests
}

var _ CompletionClient = (*OpenAIClient)(nil)
