// Package speaker maps playback time to the speaker attributed by a
// subtitle track and reports when that speaker changes.
package speaker

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/reinocast/speakersync/internal/subtitle"
)

// None is the active speaker when no attributed segment covers the time.
const None = ""

// Segment is one time range of the track. A time t belongs to the segment
// iff Start <= t < End.
type Segment struct {
	ID      string
	Start   time.Duration
	End     time.Duration
	Speaker string
	Text    string
}

func (s Segment) Contains(t time.Duration) bool {
	return s.Start <= t && t < s.End
}

// Change is the result of a time query.
type Change struct {
	Changed  bool
	Previous string
	Current  string
}

// Loader is the external parse step that produces segments.
type Loader interface {
	Segments(ctx context.Context) ([]Segment, error)
}

type LoaderFunc func(ctx context.Context) ([]Segment, error)

func (f LoaderFunc) Segments(ctx context.Context) ([]Segment, error) {
	return f(ctx)
}

// Engine holds the segments of one sync session and the active speaker.
// It is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	segments []Segment
	active   string
}

func NewEngine() *Engine {
	return &Engine{}
}

// Load replaces the segments, keeping their order, and resets the active
// speaker. Overlap and ordering are not checked; an empty list is valid.
func (e *Engine) Load(segments []Segment) error {
	for i, s := range segments {
		if s.Start < 0 || s.End <= s.Start {
			return fmt.Errorf(
				"segment %s: %w: %v-%v",
				segmentName(s, i),
				ErrInvalidSegment,
				s.Start,
				s.End,
			)
		}
	}

	loaded := make([]Segment, len(segments))
	copy(loaded, segments)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.segments = loaded
	e.active = None
	return nil
}

// LoadFrom runs the parse step and loads its result. Parser failures are
// returned as *ParseError. No failure changes the engine.
func (e *Engine) LoadFrom(ctx context.Context, loader Loader) error {
	segments, err := loader.Segments(ctx)
	if err != nil {
		source := "loader"
		if named, ok := loader.(fmt.Stringer); ok {
			source = named.String()
		}
		return &ParseError{Source: source, Err: err}
	}
	return e.Load(segments)
}

// QueryAtTime resolves the speaker at t: the first segment in list order
// containing t wins; a miss or an unattributed segment resolves to None.
func (e *Engine) QueryAtTime(t time.Duration) Change {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := None
	if seg, ok := e.find(t); ok {
		current = seg.Speaker
	}
	return e.transition(current)
}

// QueryAtSeconds is QueryAtTime for players reporting fractional seconds.
// Negative, NaN and infinite values match nothing.
func (e *Engine) QueryAtSeconds(sec float64) Change {
	t, ok := Seconds(sec)
	if !ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.transition(None)
	}
	return e.QueryAtTime(t)
}

func (e *Engine) CurrentSpeaker() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Reset clears the active speaker and keeps the segments.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = None
}

// SegmentAt returns the segment a query at t would match, without
// touching the active speaker.
func (e *Engine) SegmentAt(t time.Duration) (Segment, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.find(t)
}

func (e *Engine) Segments() []Segment {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Segment, len(e.segments))
	copy(out, e.segments)
	return out
}

// Speakers lists the distinct non-empty labels in order of first appearance.
func (e *Engine) Speakers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	labels := lo.FilterMap(e.segments, func(s Segment, _ int) (string, bool) {
		return s.Speaker, s.Speaker != None
	})
	return lo.Uniq(labels)
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.segments)
}

// caller holds e.mu
func (e *Engine) find(t time.Duration) (Segment, bool) {
	if t < 0 {
		return Segment{}, false
	}
	for _, s := range e.segments {
		if s.Contains(t) {
			return s, true
		}
	}
	return Segment{}, false
}

// caller holds e.mu
func (e *Engine) transition(current string) Change {
	change := Change{
		Changed:  current != e.active,
		Previous: e.active,
		Current:  current,
	}
	e.active = current
	return change
}

// Seconds converts a fractional second count to a Duration. It reports
// false for values that cannot be a playback position.
func Seconds(sec float64) (time.Duration, bool) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return 0, false
	}
	if sec >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64), true
	}
	return time.Duration(sec * float64(time.Second)), true
}

// FromSubtitle converts parsed cues into segments, in file order. Cues
// with an empty or inverted time range can never match and are dropped.
func FromSubtitle(sub *subtitle.Subtitle) []Segment {
	return lo.FilterMap(sub.Entries, func(entry subtitle.Entry, i int) (Segment, bool) {
		id := strconv.Itoa(entry.Index)
		if entry.Index == 0 {
			id = strconv.Itoa(i + 1)
		}
		seg := Segment{
			ID:      id,
			Start:   entry.StartTime,
			End:     entry.EndTime,
			Speaker: entry.Speaker,
			Text:    entry.Text,
		}
		return seg, seg.Start >= 0 && seg.End > seg.Start
	})
}

func segmentName(s Segment, i int) string {
	if s.ID != "" {
		return s.ID
	}
	return "#" + strconv.Itoa(i+1)
}
