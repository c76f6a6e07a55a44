package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/reinocast/speakersync/internal/logging"
)

// DefaultSettle is how long the file must stay quiet before a reload
const DefaultSettle = 200 * time.Millisecond

type Option func(*implWatcher)

func WithSettle(d time.Duration) Option {
	return func(w *implWatcher) {
		if d >= 0 {
			w.settle = d
		}
	}
}

// New watches filePath. Editors often replace files instead of writing
// them in place, so the parent directory is watched and events are
// filtered by name.
func New(filePath string, handler EventHandler, log *logging.Logger, opts ...Option) (Watcher, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	w := &implWatcher{
		path:    abs,
		handler: handler,
		logger:  logging.OrNop(log),
		watcher: watcher,
		settle:  DefaultSettle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}
