package speaker

import (
	"context"
	"errors"

	"github.com/reinocast/speakersync/internal/subtitle"
)

// ErrNoSegments is returned when a subtitle file holds no cue with a
// usable time range.
var ErrNoSegments = errors.New("no usable segments")

// SubtitleLoader fetches a subtitle file from a path or URL and turns its
// cues into segments.
type SubtitleLoader struct {
	Location string
	Fetcher  *subtitle.Fetcher
}

func NewSubtitleLoader(location string) *SubtitleLoader {
	return &SubtitleLoader{
		Location: location,
		Fetcher:  subtitle.NewFetcher(),
	}
}

func (l *SubtitleLoader) Segments(ctx context.Context) ([]Segment, error) {
	fetcher := l.Fetcher
	if fetcher == nil {
		fetcher = subtitle.NewFetcher()
	}
	file, err := fetcher.Fetch(ctx, l.Location)
	if err != nil {
		return nil, err
	}
	segments := FromSubtitle(file.Subtitle())
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}
	return segments, nil
}

func (l *SubtitleLoader) String() string {
	return l.Location
}
