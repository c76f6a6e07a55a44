package subtitle

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Splitter turns speaker segments into display sized cues. A segment too
// long to read in one cue is cut at word boundaries; the pieces keep its
// speaker and share its time range in proportion to their length.
type Splitter struct {
	LineWidth   int // runes per line
	Lines       int // lines per cue
	MaxDuration time.Duration
}

func NewSplitter() *Splitter {
	return &Splitter{
		LineWidth:   42,
		Lines:       2,
		MaxDuration: 7 * time.Second,
	}
}

func (s *Splitter) Generate(segments []Segment) (*Subtitle, error) {
	entries := make([]Entry, 0, len(segments))
	for _, seg := range segments {
		for _, cue := range s.split(seg) {
			cue.Index = len(entries) + 1
			entries = append(entries, cue)
		}
	}
	return &Subtitle{
		Entries: entries,
		Format:  string(FormatSRT),
	}, nil
}

// number of cues needed for text and duration, at least one
func (s *Splitter) pieces(text string, duration time.Duration) int {
	n := 1
	if capacity := s.LineWidth * s.Lines; capacity > 0 {
		n = max(n, ceilDiv(utf8.RuneCountInString(text), capacity))
	}
	if s.MaxDuration > 0 {
		n = max(n, int(ceilDiv(int64(duration), int64(s.MaxDuration))))
	}
	return n
}

func (s *Splitter) split(seg Segment) []Entry {
	words := strings.Fields(seg.Text)
	if len(words) == 0 {
		return nil
	}
	text := strings.Join(words, " ")
	duration := seg.EndTime - seg.StartTime

	n := s.pieces(text, duration)
	groups := lo.Chunk(words, ceilDiv(len(words), n))
	lines := lo.Map(groups, func(g []string, _ int) string {
		return strings.Join(g, " ")
	})

	total := utf8.RuneCountInString(strings.Join(lines, ""))
	cues := make([]Entry, 0, len(lines))
	start, seen := seg.StartTime, 0
	for i, line := range lines {
		seen += utf8.RuneCountInString(line)
		end := seg.StartTime + time.Duration(int64(duration)*int64(seen)/int64(total))
		if i == len(lines)-1 {
			end = seg.EndTime
		}
		cues = append(cues, Entry{
			StartTime: start,
			EndTime:   end,
			Speaker:   seg.Speaker,
			Text:      s.wrap(line),
		})
		start = end
	}
	return cues
}

// breaks text over two lines at the space nearest its middle
func (s *Splitter) wrap(text string) string {
	length := utf8.RuneCountInString(text)
	if s.LineWidth <= 0 || length <= s.LineWidth {
		return text
	}

	best, bestDist := -1, length
	for i, r := range text {
		if r != ' ' {
			continue
		}
		dist := utf8.RuneCountInString(text[:i]) - length/2
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return text
	}
	return text[:best] + "\n" + text[best+1:]
}

func ceilDiv[T int | int64](a, b T) T {
	return (a + b - 1) / b
}
