package attribute

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// one transcript block awaiting a speaker
type Item struct {
	Index int           `json:"index"`
	Start time.Duration `json:"-"`
	Text  string        `json:"text"`
}

// speaker chosen for an item; empty when no speaker could be identified
type Result struct {
	Index   int    `json:"index"`
	Speaker string `json:"speaker"`
}

// interface for speaker attribution
type Attributor interface {
	Attribute(ctx context.Context, items []Item) ([]Result, error)
}

// attribution backend
type Provider string

const (
	ProviderRules     Provider = "rules"
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

type Options struct {
	Speakers    []string // candidate speakers, required by LLM providers
	Rules       []Rule   // used by ProviderRules
	Model       string
	Prompt      string
	BatchSize   int // items per API request (default 50)
	Concurrency int // parallel API requests (default 3)
}

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

// creates Attributor based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Attributor, error) {
	switch provider {
	case ProviderRules:
		return NewRules(opts.Rules)
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		if len(opts.Speakers) == 0 {
			return nil, fmt.Errorf("candidate speakers are required for %s", provider)
		}
	default:
		return nil, fmt.Errorf("unsupported attribution provider: %s", provider)
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiAttributor(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIAttributor(ctx, apiKey, opts)
	default:
		return NewAnthropicAttributor(ctx, apiKey, opts)
	}
}

// BuildPrompt creates the attribution prompt for LLM providers
func BuildPrompt(opts Options, items []Item) string {
	var sb strings.Builder

	sb.WriteString("The following JSON lists consecutive blocks of a conversation transcript.\n")
	sb.WriteString("Identify who is speaking in each block.\n\n")

	sb.WriteString("Candidate speakers:\n")
	for _, s := range opts.Speakers {
		sb.WriteString(fmt.Sprintf("- %s\n", s))
	}
	sb.WriteString("\n")

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Use ONLY the candidate speaker names, spelled exactly as listed.\n")
	sb.WriteString("2. Use an empty string when a block gives no clue; it keeps the previous speaker.\n")
	sb.WriteString("3. Return ONLY a JSON array with one object per input block.\n")
	sb.WriteString("4. Each object must have 'index' and 'speaker' fields.\n")
	sb.WriteString("5. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("6. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		sb.WriteString(fmt.Sprintf("Additional instructions: %s\n\n", opts.Prompt))
	}

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the JSON array only:")

	return sb.String()
}
