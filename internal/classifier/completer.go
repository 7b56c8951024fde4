package classifier

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-graph/internal/resilience"
	"github.com/sells-group/roster-graph/pkg/anthropic"
	"github.com/sells-group/roster-graph/pkg/openaicompat"
)

// Temperature used for every classification call.
const temperature = 0.1

// Completer sends one prompt to a chat model and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

type anthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter adapts an Anthropic client.
func NewAnthropicCompleter(client anthropic.Client, model string, maxTokens int) Completer {
	return &anthropicCompleter{client: client, model: model, maxTokens: int64(maxTokens)}
}

func (c *anthropicCompleter) Name() string { return "anthropic/" + c.model }

func (c *anthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	temp := temperature
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", markTransient(err, anthropic.StatusCode(err))
	}
	resp.Usage.LogCost(c.model, "classifier")
	return resp.Text(), nil
}

type openAICompleter struct {
	client    openaicompat.Client
	model     string
	maxTokens int
}

// NewOpenAICompleter adapts an OpenAI-compatible client.
func NewOpenAICompleter(client openaicompat.Client, model string, maxTokens int) Completer {
	return &openAICompleter{client: client, model: model, maxTokens: maxTokens}
}

func (c *openAICompleter) Name() string { return "openai/" + c.model }

func (c *openAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat(ctx, openaicompat.ChatRequest{
		Model:       c.model,
		System:      system,
		Prompt:      prompt,
		MaxTokens:   c.maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", markTransient(err, openaicompat.StatusCode(err))
	}
	return resp.Content, nil
}

// markTransient tags retryable API failures so the retry loop picks them up.
func markTransient(err error, status int) error {
	if status != 0 && resilience.IsTransientStatus(status) {
		return resilience.NewTransientError(err, status)
	}
	if status != 0 {
		return eris.Wrapf(err, "classifier: status %d", status)
	}
	return err
}
