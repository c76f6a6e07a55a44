// Package transcript turns a copied, timestamped transcript into speaker
// labelled subtitles.
package transcript

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/reinocast/speakersync/internal/attribute"
	"github.com/reinocast/speakersync/internal/logging"
	"github.com/reinocast/speakersync/internal/subtitle"
)

// M:SS or H:MM:SS alone on a line
var timestampRegex = regexp.MustCompile(`^(\d{1,2}:\d{2}(?::\d{2})?)$`)

const DefaultDuration = 5 * time.Second

// text spoken from Start until the next block begins
type Block struct {
	Start time.Duration
	Text  string
}

// ParseTimestamp parses M:SS or H:MM:SS.
func ParseTimestamp(s string) (time.Duration, error) {
	if !timestampRegex.MatchString(s) {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	parts := strings.Split(s, ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		nums[i] = n
	}

	var h, m, sec int
	if len(nums) == 3 {
		h, m, sec = nums[0], nums[1], nums[2]
		if m > 59 {
			return 0, fmt.Errorf("invalid timestamp %q: minutes out of range", s)
		}
	} else {
		m, sec = nums[0], nums[1]
	}
	if sec > 59 {
		return 0, fmt.Errorf("invalid timestamp %q: seconds out of range", s)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second, nil
}

// ReadBlocks groups the lines following each timestamp line into a block.
// Blank lines, skipLines and text before the first timestamp are ignored,
// and a timestamp without text yields no block.
func ReadBlocks(r io.Reader, skipLines []string) ([]Block, error) {
	skip := lo.SliceToMap(skipLines, func(s string) (string, struct{}) {
		return strings.TrimSpace(s), struct{}{}
	})

	var (
		blocks  []Block
		current *Block
		text    []string
	)
	flush := func() {
		if current != nil && len(text) > 0 {
			current.Text = strings.Join(text, " ")
			blocks = append(blocks, *current)
		}
		text = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		if _, ok := skip[line]; ok {
			continue
		}

		if timestampRegex.MatchString(line) {
			start, err := ParseTimestamp(line)
			if err != nil {
				return nil, err
			}
			flush()
			current = &Block{Start: start}
			continue
		}

		if current != nil {
			text = append(text, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	flush()

	return blocks, nil
}

type Options struct {
	// speaker assumed until the first attribution
	DefaultSpeaker string
	// length of the last block when the media duration is unknown
	DefaultDuration time.Duration
	// end of the media; extends the last block when known
	MediaDuration time.Duration
}

// Converter attributes speakers to transcript blocks.
type Converter struct {
	attributor attribute.Attributor
	opts       Options
	logger     *logging.Logger
}

func NewConverter(a attribute.Attributor, opts Options, logger *logging.Logger) *Converter {
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = DefaultDuration
	}
	return &Converter{
		attributor: a,
		opts:       opts,
		logger:     logging.OrNop(logger),
	}
}

// Convert builds one segment per block. Each block ends where the next
// one starts; a block without an attributed speaker keeps the previous
// block's speaker.
func (c *Converter) Convert(ctx context.Context, blocks []Block) ([]subtitle.Segment, error) {
	if len(blocks) == 0 {
		return []subtitle.Segment{}, nil
	}

	items := lo.Map(blocks, func(b Block, i int) attribute.Item {
		return attribute.Item{Index: i, Start: b.Start, Text: b.Text}
	})

	results, err := c.attributor.Attribute(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("attribute speakers: %w", err)
	}
	attributed := lo.SliceToMap(results, func(r attribute.Result) (int, string) {
		return r.Index, r.Speaker
	})

	segments := make([]subtitle.Segment, len(blocks))
	current := c.opts.DefaultSpeaker
	for i, b := range blocks {
		if s := attributed[i]; s != "" {
			current = s
		}
		segments[i] = subtitle.Segment{
			StartTime: b.Start,
			EndTime:   c.endOf(blocks, i),
			Speaker:   current,
			Text:      b.Text,
		}
	}

	c.logger.Debugw("Transcript converted",
		"blocks", len(blocks),
		"attributed", len(lo.Filter(results, func(r attribute.Result, _ int) bool { return r.Speaker != "" })),
	)
	return segments, nil
}

func (c *Converter) endOf(blocks []Block, i int) time.Duration {
	start := blocks[i].Start
	if i+1 < len(blocks) {
		if next := blocks[i+1].Start; next > start {
			return next
		}
		c.logger.Warnw("Transcript timestamps go backwards",
			"block", i+1,
			"start", start,
			"next", blocks[i+1].Start,
		)
		return start + c.opts.DefaultDuration
	}
	if c.opts.MediaDuration > start {
		return c.opts.MediaDuration
	}
	return start + c.opts.DefaultDuration
}

// Subtitle turns segments into one cue each, numbered from 1.
func Subtitle(segments []subtitle.Segment) *subtitle.Subtitle {
	return &subtitle.Subtitle{
		Entries: lo.Map(segments, func(s subtitle.Segment, i int) subtitle.Entry {
			return subtitle.Entry{
				Index:     i + 1,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Speaker:   s.Speaker,
				Text:      s.Text,
			}
		}),
		Format: string(subtitle.FormatSRT),
	}
}
