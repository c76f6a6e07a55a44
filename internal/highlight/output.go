package highlight

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/reinocast/speakersync/internal/logging"
	"github.com/reinocast/speakersync/internal/speaker"
)

// LogSink logs every speaker change.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logging.OrNop(logger)}
}

func (s *LogSink) Notify(change speaker.Change) {
	if !change.Changed {
		return
	}
	s.logger.Infow("Speaker changed",
		"from", displayName(change.Previous),
		"to", displayName(change.Current),
	)
}

func displayName(label string) string {
	if label == speaker.None {
		return "(none)"
	}
	return label
}

// changeRecord is one line of JSONSink output
type changeRecord struct {
	At       string `json:"at,omitempty"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// JSONSink writes one JSON object per speaker change.
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
	err error
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w), now: time.Now}
}

func (s *JSONSink) Notify(change speaker.Change) {
	if !change.Changed {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	rec := changeRecord{
		Previous: change.Previous,
		Current:  change.Current,
	}
	if s.now != nil {
		rec.At = s.now().UTC().Format(time.RFC3339Nano)
	}
	s.err = s.enc.Encode(rec)
}

// Err returns the first write error; later changes are dropped after it.
func (s *JSONSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
