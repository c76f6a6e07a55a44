// Package session drives a speaker engine from a playback source: it polls
// the playback position while playing and forwards each result to a sink.
package session

import (
	"context"
	"time"

	"github.com/reinocast/speakersync/internal/highlight"
	"github.com/reinocast/speakersync/internal/logging"
	"github.com/reinocast/speakersync/internal/playback"
	"github.com/reinocast/speakersync/internal/speaker"
)

const DefaultInterval = 100 * time.Millisecond

type Session struct {
	engine   *speaker.Engine
	source   playback.Source
	sink     highlight.Sink
	interval time.Duration
	logger   *logging.Logger
	hook     func(playback.Event)

	ticker *time.Ticker
}

type Option func(*Session)

func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		s.logger = logging.OrNop(l)
	}
}

// WithEventHook is called after each playback event has been handled.
func WithEventHook(fn func(playback.Event)) Option {
	return func(s *Session) {
		s.hook = fn
	}
}

func New(engine *speaker.Engine, source playback.Source, sink highlight.Sink, opts ...Option) *Session {
	s := &Session{
		engine:   engine,
		source:   source,
		sink:     sink,
		interval: DefaultInterval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes playback events until the source closes its event channel
// or ctx is done. A session with a missing collaborator logs a warning
// and returns nil without doing anything.
func (s *Session) Run(ctx context.Context) error {
	if !s.ready() {
		return nil
	}

	events := s.source.Events()
	defer s.stop()

	for {
		select {
		case <-ctx.Done():
			s.detach("context done")
			return nil

		case ev, ok := <-events:
			if !ok {
				s.detach("source closed")
				return nil
			}
			s.handle(ev)
			if s.hook != nil {
				s.hook(ev)
			}

		case <-s.tick():
			s.poll()
		}
	}
}

func (s *Session) ready() bool {
	switch {
	case s.engine == nil:
		s.logger.Warnw("Speaker sync disabled", "reason", "no engine")
	case s.source == nil:
		s.logger.Warnw("Speaker sync disabled", "reason", "no playback source")
	case s.sink == nil:
		s.logger.Warnw("Speaker sync disabled", "reason", "no highlight sink")
	case highlight.Targets(s.sink) == 0:
		s.logger.Warnw("Speaker sync disabled", "reason", "no people items to highlight")
	default:
		return true
	}
	return false
}

func (s *Session) handle(ev playback.Event) {
	s.logger.Debugw("Playback event", "event", ev.String())

	switch ev {
	case playback.Started:
		if s.ticker == nil {
			s.ticker = time.NewTicker(s.interval)
		}
		s.poll()
	case playback.Paused:
		// highlight stays on the last speaker
		s.stop()
	case playback.Ended:
		s.detach("ended")
	}
}

func (s *Session) poll() {
	at := s.source.CurrentTime()
	change := s.engine.QueryAtSeconds(at)
	if change.Changed {
		s.logger.Debugw("Active speaker",
			"at", at,
			"previous", change.Previous,
			"current", change.Current,
		)
	}
	s.sink.Notify(change)
}

// stops polling, clears the active speaker and tells the sink
func (s *Session) detach(reason string) {
	s.stop()

	previous := s.engine.CurrentSpeaker()
	s.engine.Reset()
	s.sink.Notify(speaker.Change{
		Changed:  previous != speaker.None,
		Previous: previous,
		Current:  speaker.None,
	})
	s.logger.Debugw("Speaker sync detached", "reason", reason)
}

func (s *Session) stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// nil channel blocks forever when not polling
func (s *Session) tick() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}
