package evaluation

import (
	"context"

	"github.com/mwiater/qaeval/internal/appconfig"
	"github.com/mwiater/qaeval/internal/logging"
	"github.com/mwiater/qaeval/internal/providers"
)

// Client evaluates prompts against a completion service with fixed sampling
// parameters.
type Client struct {
	completer   providers.Completer
	model       string
	temperature float64
	maxTokens   int
}

// NewClient binds a completer to the configured model parameters.
func NewClient(completer providers.Completer, cfg *appconfig.Config) *Client {
	return &Client{
		completer:   completer,
		model:       cfg.ModelName(),
		temperature: cfg.SamplingTemperature(),
		maxTokens:   cfg.MaxOutputTokens(),
	}
}

// Evaluate sends one prompt. Every error (network, timeout, auth, service)
// becomes a Failure carrying the error text.
func (c *Client) Evaluate(ctx context.Context, prompt string) Result {
	out, err := c.completer.Complete(ctx, providers.CompletionRequest{
		Model:       c.model,
		Messages:    providers.UserPrompt(prompt),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		logging.LogEvent("evaluation failed on %s: %v", c.completer.Name(), err)
		return Failure(err.Error())
	}
	return Success(out)
}

// Model returns the model name sent with every request.
func (c *Client) Model() string { return c.model }
