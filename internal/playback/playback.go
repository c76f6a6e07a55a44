// Package playback adapts video players to the three lifecycle signals
// and the current-time getter the sync session needs.
package playback

// lifecycle signal emitted by a playback source
type Event int

const (
	Started Event = iota + 1
	Paused
	Ended
)

func (e Event) String() string {
	switch e {
	case Started:
		return "started"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Source is anything that can report a playback position in seconds and
// signal when playback starts, pauses and ends.
type Source interface {
	CurrentTime() float64
	Events() <-chan Event
}

// buffered so a player thread never blocks on a slow session
const eventBuffer = 16

// non-blocking send; a full buffer drops the oldest pending event
func emit(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
