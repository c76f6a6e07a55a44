package watcher

import "context"

// Watcher monitors a subtitle file and reloads it when it changes.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler handles a change of the watched file
type EventHandler func(ctx context.Context, filePath string) error
