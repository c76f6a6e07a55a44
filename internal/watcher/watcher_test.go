package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reinocast/speakersync/internal/logging"
	"github.com/reinocast/speakersync/internal/speaker"
)

const firstSRT = `1
00:00:00,000 --> 00:00:05,000
[Gabriel Tintor]: Bom dia a todos.
`

const secondSRT = `1
00:00:00,000 --> 00:00:05,000
[Jairo]: Bom dia a todos.

2
00:00:05,000 --> 00:00:09,000
[Douglas]: Obrigado.
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestWatcherCallsHandlerForWatchedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcribe.srt")
	writeFile(t, path, firstSRT)

	calls := make(chan string, 8)
	handler := func(ctx context.Context, filePath string) error {
		calls <- filePath
		return nil
	}

	w, err := New(path, handler, nil, WithSettle(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// give the loop a moment to start receiving
	time.Sleep(20 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "other.txt"), "ignored")
	writeFile(t, path, secondSRT)

	select {
	case got := <-calls:
		abs, _ := filepath.Abs(path)
		if got != abs {
			t.Errorf("handler got %q, want %q", got, abs)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("handler was not called")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start returned %v", err)
	}

	for len(calls) > 0 {
		if got := <-calls; filepath.Base(got) != "transcribe.srt" {
			t.Errorf("unrelated file triggered a reload: %s", got)
		}
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "a.srt"), nil, nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestReloader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcribe.srt")
	writeFile(t, path, firstSRT)

	engine := speaker.NewEngine()
	loader := speaker.NewSubtitleLoader(path)
	if err := engine.LoadFrom(context.Background(), loader); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	reload := Reloader(engine, loader, logging.New(zap.New(core)))

	writeFile(t, path, secondSRT)
	if err := reload(context.Background(), path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if engine.Len() != 2 {
		t.Fatalf("got %d segments after reload, want 2", engine.Len())
	}
	if logs.FilterMessage("Subtitles reloaded").Len() != 1 {
		t.Error("expected reload log entry")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := reload(context.Background(), path); err == nil {
		t.Fatal("expected error for missing file")
	}
	if engine.Len() != 2 {
		t.Errorf("failed reload changed segments, got %d", engine.Len())
	}
}
