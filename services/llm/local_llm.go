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
)

type LocalLlamaCppClient struct {
	httpClient *http.Client
	baseURL    string
}

type localCompletionPayload struct {
	Prompt   string `json:"prompt"`
	NPredict int    `json:"n_predict"`
}

type llamaCppResp struct {
	Content string `json:"content"`
}

func NewLocalLlamaCppClient() (*LocalLlamaCppClient, error) {
	baseURL := os.Getenv("LLM_SERVICE_URL_BASE")
	if baseURL == "" {
		return nil, fmt.Errorf("LLM_SERVICE_URL_BASE environment variable not set")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &LocalLlamaCppClient{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    baseURL,
	}, nil
}

// Name implements the CompletionClient interface.
func (l *LocalLlamaCppClient) Name() string {
	return "local"
}

// Complete implements the CompletionClient interface against a llama.cpp
// server's /completion endpoint.
func (l *LocalLlamaCppClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	completionURL := l.baseURL + "/completion"
	payload := localCompletionPayload{
		Prompt:   prompt,
		NPredict: maxTokens,
	}

	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal the payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", completionURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request to the llm: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("Calling llama.cpp completion", "url", completionURL, "max_tokens", maxTokens)
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make a request to the llm: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read the llm's response: %w", err)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", fmt.Errorf("llama.cpp returned status %d: %w", resp.StatusCode, ErrOverloaded)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llama.cpp failed with status %d: %s", resp.StatusCode, string(body))
	}

	var llmResponseBody llamaCppResp
	if err := json.Unmarshal(body, &llmResponseBody); err != nil {
		return "", fmt.Errorf("failed to parse the llm response: %w", err)
	}
	return llmResponseBody.Content, nil
}

var _ CompletionClient = (*LocalLlamaCppClient)(nil)
