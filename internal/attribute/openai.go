package attribute

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Attributor using OpenAI Chat Completions
type OpenAIAttributor struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIAttributor(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIAttributor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}

	return &OpenAIAttributor{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (a *OpenAIAttributor) Attribute(ctx context.Context, items []Item) ([]Result, error) {
	return attributeBatches(ctx, a.options, items, a.complete)
}

func (a *OpenAIAttributor) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := a.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: a.model,
		},
	)
	if err != nil {
		return "", fmt.Errorf("attribution failed: %w", err)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	text := completion.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("no text in OpenAI response")
	}
	return text, nil
}
