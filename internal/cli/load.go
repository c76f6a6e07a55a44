package cli

import (
	"context"
	"fmt"

	"github.com/reinocast/speakersync/internal/speaker"
)

// loads the subtitle track at location into a new engine
func loadEngine(ctx context.Context, location string) (*speaker.Engine, *speaker.SubtitleLoader, error) {
	loader := speaker.NewSubtitleLoader(location)
	engine := speaker.NewEngine()

	logger.Infow("Loading subtitles", "location", location)
	if err := engine.LoadFrom(ctx, loader); err != nil {
		return nil, nil, fmt.Errorf("failed to load subtitles: %w", err)
	}

	speakers := engine.Speakers()
	logger.Infow("Loaded subtitles",
		"segments", engine.Len(),
		"speakers", len(speakers),
	)
	if len(speakers) == 0 {
		logger.Warnw("No cue carries a [Speaker]: label", "location", location)
	}
	return engine, loader, nil
}
