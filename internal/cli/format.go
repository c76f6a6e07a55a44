package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/reinocast/speakersync/internal/highlight"
	"github.com/reinocast/speakersync/internal/transcript"
)

// HH:MM:SS.mmm
func formatPosition(sec float64) string {
	d := time.Duration(sec * float64(time.Second)).Round(time.Millisecond)
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, d/time.Millisecond)
}

// people list with the active ones in brackets
func renderBoard(items []highlight.Item) string {
	names := lo.Map(items, func(it highlight.Item, _ int) string {
		if it.Active {
			return "[" + it.Person + "]"
		}
		return it.Person
	})
	line := strings.Join(names, "  ")
	if !lo.SomeBy(items, func(it highlight.Item) bool { return it.Active }) {
		line += "  (nobody)"
	}
	return line
}

// parseTimeArg accepts seconds ("62.5"), clock time ("1:02", "1:00:05")
// or a Go duration ("1m2s").
func parseTimeArg(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		return sec, nil
	}
	if d, err := transcript.ParseTimestamp(s); err == nil {
		return d.Seconds(), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d.Seconds(), nil
	}
	return 0, fmt.Errorf("invalid time %q: use seconds, M:SS, H:MM:SS or a duration like 1m2s", s)
}

func isLocal(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return true
	}
	return u.Scheme != "http" && u.Scheme != "https"
}
