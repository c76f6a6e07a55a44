package subtitle

import (
	"time"

	"github.com/samber/lo"
)

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Speaker   string // empty when the cue has no speaker label
	Text      string // payload with any speaker label removed
}

// represents complete subtitle track
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// interface for subtitle generation
type Generator interface {
	Generate(segments []Segment) (*Subtitle, error)
}

// represents a timed, optionally attributed, block of speech
type Segment struct {
	StartTime time.Duration
	EndTime   time.Duration
	Speaker   string
	Text      string
}

// interface for writing subtitles to files
type Writer interface {
	Write(subtitle *Subtitle, path string) error
}

// unique speaker labels in order of first appearance
func (s *Subtitle) Speakers() []string {
	labels := lo.Map(s.Entries, func(e Entry, _ int) string {
		return e.Speaker
	})
	return lo.Uniq(lo.Filter(labels, func(l string, _ int) bool {
		return l != ""
	}))
}
