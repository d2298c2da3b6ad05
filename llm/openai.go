// Package llm wraps the text-generation service behind a narrow interface so
// the rest of the system never touches the API client directly.
package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Generator produces documentation prose from a system instruction and a
// user prompt. The output is opaque text passed through untouched.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Conservative settings for documentation: low temperature keeps the output
// factual, and one file's documentation fits well inside the token cap.
const (
	temperature = 0.3
	maxTokens   = 2000
)

// Client is the OpenAI-backed Generator.
type Client struct {
	api   *openai.Client
	model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		api:   openai.NewClient(apiKey),
		model: model,
	}
}

// NewClientWithBaseURL targets a nonstandard endpoint, mainly for tests and
// OpenAI-compatible gateways.
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Generate implements Generator with a single chat completion.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
