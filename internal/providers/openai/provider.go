// internal/providers/openai/provider.go
// Package openai provides a Completer backed by an OpenAI-compatible
// /chat/completions HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/qaeval/internal/appconfig"
	"github.com/mwiater/qaeval/internal/logging"
	"github.com/mwiater/qaeval/internal/providers"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Provider implements providers.Completer using the chat/completions endpoint.
type Provider struct {
	client   *http.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
	debug    bool
}

// New constructs a Provider from the application configuration. The API key
// is injected here; a missing key surfaces on the first Complete call.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: cfg.APIBaseURL() + "/chat/completions",
		apiKey:   cfg.ResolveAPIKey(),
		timeout:  timeout,
		debug:    cfg.Debug,
	}
}

// APIError is a non-2xx answer from the completion service.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Type       string
	Code       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "no error message"
	}
	if e.Code != "" {
		return fmt.Sprintf("openai: /chat/completions returned %s (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("openai: /chat/completions returned %s: %s", e.Status, msg)
}

// Unauthorized reports whether the service rejected the credentials.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

type chatRequest struct {
	Model       string                  `json:"model"`
	Messages    []providers.ChatMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Stream      bool                    `json:"stream"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Name returns the endpoint host for logging.
func (p *Provider) Name() string {
	u, err := url.Parse(p.endpoint)
	if err != nil || u.Host == "" {
		return p.endpoint
	}
	return u.Host
}

// Complete issues one non-streaming chat request and returns the first
// choice's content.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	if p.apiKey == "" {
		return "", providers.ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return "", err
	}
	logging.LogRequest("QAEVAL->LLM", p.Name(), req.Model, body)

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}
	logging.LogRequest("LLM->QAEVAL", p.Name(), req.Model, raw)
	if p.debug {
		logging.LogEvent("openai: %s in %s", resp.Status, time.Since(start).Round(time.Millisecond))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseError(resp, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", providers.ErrEmptyCompletion
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", providers.ErrEmptyCompletion
	}
	return content, nil
}

func parseError(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
		apiErr.Type = parsed.Error.Type
		apiErr.Code = parsed.Error.Code
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
