package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	domain "github.com/yudhapratama/code-review-api/internal/domain/ai"
	"github.com/yudhapratama/code-review-api/internal/infra/ai/prompt"
)

const maxTokens = 2048

// requestTimeout bounds one completion round-trip so a wedged upstream cannot
// hold a request slot forever.
const requestTimeout = 120 * time.Second

type Client struct {
	*openai.Client
	Model string
}

// NewClient builds a completion client against an OpenAI-compatible endpoint.
// baseURL selects the provider (OpenRouter in the default deployment); an
// empty baseURL falls back to the upstream OpenAI API.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Review(ctx context.Context, filename, code string) (string, error) {
	model := c.Model
	if model == "" {
		model = "openai/gpt-4o"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(filename, code)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", domain.ErrQuotaExceeded
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
