package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reinocast/speakersync/internal/highlight"
	"github.com/reinocast/speakersync/internal/logging"
	"github.com/reinocast/speakersync/internal/playback"
	"github.com/reinocast/speakersync/internal/speaker"
)

type recorder struct {
	mu      sync.Mutex
	changes []speaker.Change
}

func (r *recorder) Notify(c speaker.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func (r *recorder) last() (speaker.Change, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.changes) == 0 {
		return speaker.Change{}, false
	}
	return r.changes[len(r.changes)-1], true
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newEngine(t *testing.T) *speaker.Engine {
	t.Helper()
	e := speaker.NewEngine()
	err := e.Load([]speaker.Segment{
		{ID: "1", Start: 0, End: 5 * time.Second, Speaker: "Gabriel Tintor"},
		{ID: "2", Start: 5 * time.Second, End: 10 * time.Second, Speaker: "Douglas"},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return e
}

func TestSessionLifecycle(t *testing.T) {
	engine := newEngine(t)
	el := playback.NewElement()
	rec := &recorder{}
	board := highlight.NewBoard([]string{"Gabriel Tintor", "Douglas"})

	s := New(engine, el, highlight.Multi(rec, board), WithInterval(5*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	el.SetTime(1)
	el.Play()
	waitFor(t, "first speaker", func() bool { return engine.CurrentSpeaker() == "Gabriel Tintor" })

	el.SetTime(6.5)
	waitFor(t, "second speaker", func() bool { return engine.CurrentSpeaker() == "Douglas" })
	if got := board.Active(); len(got) != 1 || got[0] != "Douglas" {
		t.Errorf("board active = %v", got)
	}

	el.Pause()
	waitFor(t, "polling to stop", func() bool {
		n := rec.count()
		time.Sleep(30 * time.Millisecond)
		return rec.count() == n
	})
	el.SetTime(1)
	time.Sleep(30 * time.Millisecond)
	if engine.CurrentSpeaker() != "Douglas" {
		t.Errorf("paused session kept polling, speaker %q", engine.CurrentSpeaker())
	}
	if got := board.Active(); len(got) != 1 || got[0] != "Douglas" {
		t.Errorf("pause should keep the highlight, active = %v", got)
	}

	el.Play()
	waitFor(t, "resume", func() bool { return engine.CurrentSpeaker() == "Gabriel Tintor" })

	el.End()
	waitFor(t, "end", func() bool {
		c, ok := rec.last()
		return ok && c.Changed && c.Current == speaker.None
	})
	if len(board.Active()) != 0 {
		t.Errorf("end should clear the highlight, active = %v", board.Active())
	}

	el.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after source closed")
	}
}

func TestSessionContextCancelDetaches(t *testing.T) {
	engine := newEngine(t)
	el := playback.NewElement()
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	s := New(engine, el, rec, WithInterval(5*time.Millisecond))
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	el.SetTime(7)
	el.Play()
	waitFor(t, "speaker", func() bool { return engine.CurrentSpeaker() == "Douglas" })

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	c, _ := rec.last()
	want := speaker.Change{Changed: true, Previous: "Douglas", Current: speaker.None}
	if c != want {
		t.Errorf("last change = %+v, want %+v", c, want)
	}
	if engine.Len() != 2 {
		t.Error("detach should keep the segments")
	}
}

func TestSessionStartedIsIdempotent(t *testing.T) {
	engine := newEngine(t)
	src := &manualSource{events: make(chan playback.Event, 4), at: 2}
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// no ticks within the test window, so only Started triggers polls
	s := New(engine, src, rec, WithInterval(time.Hour))
	go func() { _ = s.Run(ctx) }()

	src.events <- playback.Started
	src.events <- playback.Started
	waitFor(t, "two immediate polls", func() bool { return rec.count() == 2 })

	rec.mu.Lock()
	first, second := rec.changes[0], rec.changes[1]
	rec.mu.Unlock()
	if !first.Changed || first.Current != "Gabriel Tintor" {
		t.Errorf("first poll = %+v", first)
	}
	if second.Changed {
		t.Errorf("second poll should report no change, got %+v", second)
	}
}

type manualSource struct {
	events chan playback.Event
	at     float64
}

func (m *manualSource) CurrentTime() float64 { return m.at }
func (m *manualSource) Events() <-chan playback.Event { return m.events }

func TestSessionMissingCollaborators(t *testing.T) {
	tests := []struct {
		name   string
		engine *speaker.Engine
		source playback.Source
		sink   highlight.Sink
		reason string
	}{
		{"no engine", nil, playback.NewElement(), &recorder{}, "no engine"},
		{"no source", speaker.NewEngine(), nil, &recorder{}, "no playback source"},
		{"no sink", speaker.NewEngine(), playback.NewElement(), nil, "no highlight sink"},
		{"empty board", speaker.NewEngine(), playback.NewElement(), highlight.NewBoard(nil), "no people items to highlight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			s := New(tt.engine, tt.source, tt.sink, WithLogger(logging.New(zap.New(core))))

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.Run(ctx); err != nil {
				t.Fatalf("Run returned %v", err)
			}
			if ctx.Err() != nil {
				t.Fatal("Run should return immediately")
			}

			entries := logs.FilterMessage("Speaker sync disabled").All()
			if len(entries) != 1 {
				t.Fatalf("got %d warnings, want 1", len(entries))
			}
			if got := entries[0].ContextMap()["reason"]; got != tt.reason {
				t.Errorf("reason = %v, want %q", got, tt.reason)
			}
		})
	}
}

func TestSessionEventHook(t *testing.T) {
	engine := newEngine(t)
	el := playback.NewElement()
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []playback.Event
	s := New(engine, el, rec, WithEventHook(func(ev playback.Event) {
		mu.Lock()
		seen = append(seen, ev)
		mu.Unlock()
		if ev == playback.Ended {
			cancel()
		}
	}))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	el.Play()
	el.End()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hook did not stop the session")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != playback.Started || seen[1] != playback.Ended {
		t.Errorf("hook saw %v", seen)
	}
}
