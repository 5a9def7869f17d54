// internal/providers/provider.go

// Package providers defines the interface for sending grading prompts to a
// chat completion service. Implementations live in subpackages (e.g. openai).
package providers

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned on first use when no API key was configured.
var ErrMissingAPIKey = errors.New("completion API key is not configured")

// ErrEmptyCompletion is returned when the service answers without any choice text.
var ErrEmptyCompletion = errors.New("completion response contained no content")

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one prompt plus the fixed sampling parameters.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// UserPrompt builds a single-message request for the given prompt.
func UserPrompt(prompt string) []ChatMessage {
	return []ChatMessage{{Role: "user", Content: prompt}}
}

// Completer sends one request and returns the text of the first choice.
type Completer interface {
	// Complete performs a single blocking round trip bounded by the
	// implementation's request timeout and ctx.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name identifies the backing host for logs.
	Name() string
}
