// Package openaicompat provides a chat client for OpenAI-compatible
// endpoints such as DeepSeek.
package openaicompat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

// Client defines the chat completion operation used by the classifier.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest is a single-turn chat request.
type ChatRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// ChatResponse is the first choice of a chat completion.
type ChatResponse struct {
	Model            string
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// Option configures the client.
type Option func(*openai.ClientConfig)

// WithBaseURL sets the API base URL, e.g. https://api.deepseek.com/v1.
func WithBaseURL(url string) Option {
	return func(c *openai.ClientConfig) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *openai.ClientConfig) {
		c.HTTPClient = hc
	}
}

type chatClient struct {
	client *openai.Client
}

// NewClient creates a client for an OpenAI-compatible endpoint.
func NewClient(apiKey string, opts ...Option) Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &chatClient{client: openai.NewClientWithConfig(cfg)}
}

func (c *chatClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, eris.Wrap(err, "openaicompat: chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("openaicompat: no choices in response")
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		Model:            resp.Model,
		Content:          strings.TrimSpace(choice.Message.Content),
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// StatusCode returns the HTTP status carried by an API or request error in
// err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
