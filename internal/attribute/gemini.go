package attribute

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// implements Attributor using Google Gemini
type GeminiAttributor struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiAttributor(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiAttributor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiAttributor{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (a *GeminiAttributor) Attribute(ctx context.Context, items []Item) ([]Result, error) {
	return attributeBatches(ctx, a.options, items, a.complete)
}

func (a *GeminiAttributor) complete(ctx context.Context, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("attribution failed: %w", err)
	}
	return geminiText(result)
}

func geminiText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in Gemini response")
	}
	return sb.String(), nil
}
