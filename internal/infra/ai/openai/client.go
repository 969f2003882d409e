package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/scamwatch/threatcheck/internal/domain/ai"
	"github.com/scamwatch/threatcheck/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Client adapts the OpenAI chat API into the TextExtractor port. An empty
// API key leaves the client unconfigured and the extraction step is skipped.
type Client struct {
	api   *openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	c := &Client{Model: model}
	if apiKey != "" {
		c.api = openai.NewClient(apiKey)
	}
	return c
}

func (c *Client) IsConfigured() bool { return c.api != nil }

// Extract asks the model to normalize obfuscated message content. The
// cleaned text feeds the local classifier; the model never renders verdicts.
func (c *Client) Extract(ctx context.Context, content string) (string, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserPrompt(content)},
		},
	}
	// Reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%v: %w", err, ai.ErrQuotaExceeded)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	var out struct {
		CleanedText string `json:"cleaned_text"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return "", fmt.Errorf("decode extraction response: %w", err)
	}
	return strings.TrimSpace(out.CleanedText), nil
}
