package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/reinocast/speakersync/internal/logging"
	"github.com/reinocast/speakersync/internal/speaker"
)

type implWatcher struct {
	path    string
	handler EventHandler
	logger  *logging.Logger
	watcher *fsnotify.Watcher
	settle  time.Duration
}

// Start blocks until ctx is done. Bursts of events are coalesced into one
// reload once the file has been quiet for the settle delay.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Infow("Watching subtitles", "path", w.path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			w.logger.Debugw("Subtitle watcher stopped", "path", w.path)
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debugw("Subtitle file changed", "path", event.Name, "op", event.Op.String())
			pending = time.After(w.settle)

		case <-pending:
			pending = nil
			if err := w.handler(ctx, w.path); err != nil {
				w.logger.Warnw("Subtitle reload failed, keeping previous segments",
					"path", w.path,
					"error", err,
				)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warnw("Watcher error", "error", err)
		}
	}
}

func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// Reloader returns a handler that reloads engine from loader. A failed
// load leaves the engine's segments untouched.
func Reloader(engine *speaker.Engine, loader speaker.Loader, log *logging.Logger) EventHandler {
	log = logging.OrNop(log)
	return func(ctx context.Context, filePath string) error {
		if err := engine.LoadFrom(ctx, loader); err != nil {
			return err
		}
		log.Infow("Subtitles reloaded",
			"path", filePath,
			"segments", engine.Len(),
			"speakers", len(engine.Speakers()),
		)
		return nil
	}
}
