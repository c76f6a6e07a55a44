// Package highlight receives speaker changes and reflects them in the
// people list or another output.
package highlight

import (
	"github.com/reinocast/speakersync/internal/speaker"
)

// Sink receives one change per poll tick, changed or not.
type Sink interface {
	Notify(change speaker.Change)
}

// Targeted is implemented by sinks that highlight a set of targets. A
// sink reporting zero targets has nothing to highlight.
type Targeted interface {
	Targets() int
}

type SinkFunc func(change speaker.Change)

func (f SinkFunc) Notify(change speaker.Change) {
	f(change)
}

// Targets reports how many targets s highlights; sinks that do not
// implement Targeted count as one.
func Targets(s Sink) int {
	if s == nil {
		return 0
	}
	if t, ok := s.(Targeted); ok {
		return t.Targets()
	}
	return 1
}

type multi []Sink

// Multi fans a change out to every non-nil sink, in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Notify(change speaker.Change) {
	for _, s := range m {
		s.Notify(change)
	}
}

func (m multi) Targets() int {
	n := 0
	for _, s := range m {
		n += Targets(s)
	}
	return n
}
