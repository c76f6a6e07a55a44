package subtitle

import (
	"regexp"
	"strings"
)

var speakerLabelRegex = regexp.MustCompile(`^\s*\[([^\]]+)\]:`)

// SplitSpeaker separates a leading "[Speaker Name]:" label from the cue
// text. Text without a label yields an empty speaker and the text trimmed.
func SplitSpeaker(text string) (string, string) {
	m := speakerLabelRegex.FindStringSubmatchIndex(text)
	if m == nil {
		return "", strings.TrimSpace(text)
	}
	speaker := strings.TrimSpace(text[m[2]:m[3]])
	rest := strings.TrimSpace(text[m[1]:])
	return speaker, rest
}

// renders the entry text with its speaker label, if any
func WithSpeaker(e Entry) string {
	if e.Speaker == "" {
		return e.Text
	}
	return "[" + e.Speaker + "]: " + e.Text
}
