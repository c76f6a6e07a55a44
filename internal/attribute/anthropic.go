package attribute

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Attributor using Anthropic Messages
type AnthropicAttributor struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicAttributor(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicAttributor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicAttributor{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (a *AnthropicAttributor) Attribute(ctx context.Context, items []Item) ([]Result, error) {
	return attributeBatches(ctx, a.options, items, a.complete)
}

func (a *AnthropicAttributor) complete(ctx context.Context, prompt string) (string, error) {
	message, err := a.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     a.model,
			MaxTokens: 4096,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(prompt),
				),
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("attribution failed: %w", err)
	}

	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in Anthropic response")
	}
	return sb.String(), nil
}
