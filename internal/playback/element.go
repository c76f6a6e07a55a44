package playback

import (
	"sync"
)

// Element mirrors a native video element: the host drives it and it
// reports lifecycle changes as events.
type Element struct {
	mu       sync.Mutex
	position float64
	playing  bool
	closed   bool
	events   chan Event
}

func NewElement() *Element {
	return &Element{events: make(chan Event, eventBuffer)}
}

func (el *Element) CurrentTime() float64 {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.position
}

func (el *Element) Events() <-chan Event {
	return el.events
}

func (el *Element) Playing() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.playing
}

// SetTime updates the position as a timeupdate would; no event is sent.
func (el *Element) SetTime(sec float64) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.position = sec
}

// Seek moves the position; playback state is unchanged.
func (el *Element) Seek(sec float64) {
	el.SetTime(sec)
}

func (el *Element) Play() {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.closed || el.playing {
		return
	}
	el.playing = true
	emit(el.events, Started)
}

func (el *Element) Pause() {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.closed || !el.playing {
		return
	}
	el.playing = false
	emit(el.events, Paused)
}

func (el *Element) End() {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.closed {
		return
	}
	el.playing = false
	emit(el.events, Ended)
}

// Close detaches the element; the event channel is closed.
func (el *Element) Close() {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.closed {
		return
	}
	el.closed = true
	el.playing = false
	close(el.events)
}
