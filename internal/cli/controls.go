package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/reinocast/speakersync/internal/playback"
)

// reads one command per line until EOF, "q" or ctx is done
func readControls(ctx context.Context, r io.Reader, clock *playback.Clock, quit func()) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		done, err := applyControl(scanner.Text(), clock)
		if err != nil {
			logger.Warnw("Ignoring control", "input", scanner.Text(), "error", err)
			continue
		}
		if done {
			quit()
			return
		}
	}
}

// applyControl runs one control line; it reports true when playback
// should stop.
func applyControl(line string, clock *playback.Clock) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "p", "pause":
		clock.Pause()
	case "r", "play", "resume":
		clock.Play()
	case "s", "seek":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: s <time>")
		}
		sec, err := parseTimeArg(fields[1])
		if err != nil {
			return false, err
		}
		clock.Seek(time.Duration(sec * float64(time.Second)))
	case "q", "quit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown control %q", fields[0])
	}
	return false, nil
}
