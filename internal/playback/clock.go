package playback

import (
	"context"
	"sync"
	"time"
)

// Clock plays a media of known duration against the wall clock. It is
// the source used when no real player is attached, e.g. from the CLI.
type Clock struct {
	duration time.Duration
	rate     float64
	now      func() time.Time

	mu        sync.Mutex
	offset    time.Duration // position when last (re)started or paused
	startedAt time.Time
	playing   bool
	ended     bool
	closed    bool
	events    chan Event
	wake      chan struct{}
}

type ClockOption func(*Clock)

// playback speed multiplier, 1 is real time
func WithRate(rate float64) ClockOption {
	return func(c *Clock) {
		if rate > 0 {
			c.rate = rate
		}
	}
}

func WithNow(now func() time.Time) ClockOption {
	return func(c *Clock) {
		if now != nil {
			c.now = now
		}
	}
}

// A zero duration never ends on its own.
func NewClock(duration time.Duration, opts ...ClockOption) *Clock {
	c := &Clock{
		duration: duration,
		rate:     1,
		now:      time.Now,
		events:   make(chan Event, eventBuffer),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Clock) Events() <-chan Event {
	return c.events
}

func (c *Clock) Duration() time.Duration {
	return c.duration
}

func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position().Seconds()
}

// Play starts or resumes; playing after the end restarts from zero.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.playing {
		return
	}
	if c.ended {
		c.offset = 0
		c.ended = false
	}
	c.playing = true
	c.startedAt = c.now()
	emit(c.events, Started)
	c.signal()
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.playing {
		return
	}
	c.offset = c.position()
	c.playing = false
	emit(c.events, Paused)
	c.signal()
}

// Seek moves the position without changing the playing state.
func (c *Clock) Seek(pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	c.offset = pos
	c.startedAt = c.now()
	c.ended = false
	c.signal()
}

// Run fires Ended when the position reaches the duration and closes
// Events when ctx is done.
func (c *Clock) Run(ctx context.Context) error {
	defer c.close()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if wait, ok := c.untilEnd(); ok {
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-c.wake:
		case <-timer.C:
			c.checkEnd()
		}
	}
}

// wall time left until the end, false when the clock cannot end now
func (c *Clock) untilEnd() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing || c.duration <= 0 {
		return 0, false
	}
	remaining := c.duration - c.position()
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(float64(remaining) / c.rate), true
}

func (c *Clock) checkEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing || c.duration <= 0 || c.position() < c.duration {
		return
	}
	c.playing = false
	c.ended = true
	c.offset = c.duration
	emit(c.events, Ended)
}

// caller holds c.mu
func (c *Clock) position() time.Duration {
	pos := c.offset
	if c.playing {
		elapsed := c.now().Sub(c.startedAt)
		pos += time.Duration(float64(elapsed) * c.rate)
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	return pos
}

// caller holds c.mu
func (c *Clock) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Clock) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.playing = false
	close(c.events)
}
