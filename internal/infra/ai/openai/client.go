package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/infra/ai/prompt"
)

const maxTokens = 8192

type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// NewClientWithConfig allows pointing the client at a compatible endpoint
// (proxy, OpenRouter, test server).
func NewClientWithConfig(cfg openai.ClientConfig, model string) *Client {
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

// Extract sends every page image plus the instruction payload as a single
// request and parses the structured result. Never retried here; retry
// policy belongs to the caller.
func (c *Client) Extract(ctx context.Context, pages []domain.PageImage, lang domain.Language) (*domain.AnalysisResult, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no page images", domain.ErrExtractionService)
	}

	model := c.Model
	if model == "" {
		model = openai.GPT4o
	}

	parts := make([]openai.ChatMessagePart, 0, len(pages)+1)
	for _, p := range pages {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    p.DataURL,
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt.GetUserPrompt(lang),
	})

	req := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return nil, fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionService, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", domain.ErrExtractionService)
	}

	return domain.ParseResult(resp.Choices[0].Message.Content)
}
