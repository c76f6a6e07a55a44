package playback

import (
	"context"
	"sync"
	"time"

	"github.com/reinocast/speakersync/internal/logging"
)

// player state as reported by iframe embed APIs
type State int

const (
	StateUnstarted State = iota
	StatePlaying
	StatePaused
	StateBuffering
	StateEnded
)

// EmbedPlayer is a player that can only be polled, like an iframe embed
// reached through postMessage.
type EmbedPlayer interface {
	CurrentTime() (float64, error)
	State() (State, error)
}

const DefaultEmbedPollInterval = 250 * time.Millisecond

// Embed turns polled player state into lifecycle events.
type Embed struct {
	player   EmbedPlayer
	interval time.Duration
	logger   *logging.Logger

	mu       sync.Mutex
	last     State
	active   bool
	position float64
	events   chan Event
}

type EmbedOption func(*Embed)

func WithEmbedPollInterval(d time.Duration) EmbedOption {
	return func(e *Embed) {
		if d > 0 {
			e.interval = d
		}
	}
}

func WithEmbedLogger(l *logging.Logger) EmbedOption {
	return func(e *Embed) {
		e.logger = logging.OrNop(l)
	}
}

func NewEmbed(player EmbedPlayer, opts ...EmbedOption) *Embed {
	e := &Embed{
		player:   player,
		interval: DefaultEmbedPollInterval,
		logger:   logging.NewNop(),
		last:     StateUnstarted,
		events:   make(chan Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Embed) Events() <-chan Event {
	return e.events
}

// CurrentTime asks the player; on error the last known position is used.
func (e *Embed) CurrentTime() float64 {
	t, err := e.player.CurrentTime()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.logger.Debugw("Embed player time unavailable", "error", err)
		return e.position
	}
	e.position = t
	return t
}

// Run polls the player state until ctx is done, then closes Events.
func (e *Embed) Run(ctx context.Context) error {
	defer close(e.events)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.poll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.poll()
		}
	}
}

func (e *Embed) poll() {
	state, err := e.player.State()
	if err != nil {
		e.logger.Debugw("Embed player state unavailable", "error", err)
		return
	}

	e.mu.Lock()
	prev := e.last
	e.last = state
	ev, ok := e.transition(prev, state)
	e.mu.Unlock()

	if ok {
		e.logger.Debugw("Embed player state changed",
			"from", int(prev),
			"to", int(state),
			"event", ev.String(),
		)
		emit(e.events, ev)
	}
}

// Buffering and unstarted states never produce events. Caller holds e.mu.
func (e *Embed) transition(prev, next State) (Event, bool) {
	switch next {
	case StatePlaying:
		if !e.active {
			e.active = true
			return Started, true
		}
	case StatePaused:
		if e.active {
			e.active = false
			return Paused, true
		}
	case StateEnded:
		if prev != StateEnded {
			e.active = false
			return Ended, true
		}
	}
	return 0, false
}
