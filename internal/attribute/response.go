package attribute

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

// checks a model answer against the batch it was asked about and maps
// speaker names onto the candidate list
func parseResponse(text string, batch []Item, speakers []string) ([]Result, error) {
	text = cleanJSONResponse(text)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	results, err := extractResults(text)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(text, 200),
		)
	}

	if len(results) != len(batch) {
		return nil, fmt.Errorf("expected %d results, got %d", len(batch), len(results))
	}

	want := lo.SliceToMap(batch, func(it Item) (int, struct{}) {
		return it.Index, struct{}{}
	})
	seen := make(map[int]struct{}, len(results))
	for i, r := range results {
		if _, ok := want[r.Index]; !ok {
			return nil, fmt.Errorf("unexpected index %d in response", r.Index)
		}
		if _, dup := seen[r.Index]; dup {
			return nil, fmt.Errorf("duplicate index %d in response", r.Index)
		}
		seen[r.Index] = struct{}{}
		results[i].Speaker = canonicalSpeaker(speakers, r.Speaker)
	}
	return results, nil
}

// case-insensitive match against the candidates; unknown names become empty
func canonicalSpeaker(speakers []string, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	match, ok := lo.Find(speakers, func(s string) bool {
		return strings.EqualFold(s, name)
	})
	if !ok {
		return ""
	}
	return match
}

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// fixes invalid JSON escape sequences like \N (ASS newline) that models
// echo back from the input text
func fixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if i < len(s)-1 && s[i] == '\\' {
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				result.WriteByte(s[i])
				result.WriteByte(next)
			default:
				result.WriteString("\\\\")
				result.WriteByte(next)
			}
			i += 2
			continue
		}
		result.WriteByte(s[i])
		i++
	}

	return result.String()
}

// rawResult keeps track of whether the speaker key was present at all
type rawResult struct {
	Index   *int    `json:"index"`
	Speaker *string `json:"speaker"`
}

func extractResults(text string) ([]Result, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if results, ok := tryExtractResults(raw); ok {
			return results, nil
		}
	}
	return nil, fmt.Errorf("no valid attribution JSON found in response")
}

func tryExtractResults(raw json.RawMessage) ([]Result, bool) {
	if results, ok := decodeResults(raw); ok {
		return results, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	for _, key := range []string{"results", "speakers", "data", "items"} {
		if fieldRaw, exists := wrapper[key]; exists {
			if results, ok := decodeResults(fieldRaw); ok {
				return results, true
			}
		}
	}

	for _, fieldRaw := range wrapper {
		if results, ok := decodeResults(fieldRaw); ok {
			return results, true
		}
	}

	return nil, false
}

// an array is a result list only when every element has both keys
func decodeResults(raw json.RawMessage) ([]Result, bool) {
	var items []rawResult
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	for _, it := range items {
		if it.Index == nil || it.Speaker == nil {
			return nil, false
		}
	}
	return lo.Map(items, func(it rawResult, _ int) Result {
		return Result{Index: *it.Index, Speaker: *it.Speaker}
	}), true
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
