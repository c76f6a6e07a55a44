package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

var (
	// SRT uses a comma before the milliseconds, WebVTT a dot and may omit hours
	cueTimingRegex = regexp.MustCompile(
		`^\s*((?:\d+:)?\d{2}:\d{2}[,.]\d{3})\s*-->\s*((?:\d+:)?\d{2}:\d{2}[,.]\d{3})`,
	)
	// <v Speaker Name> voice span
	vttVoiceRegex = regexp.MustCompile(`^<v(?:\.[^\s>]+)*\s+([^>]+)>`)

	vttMetadataPrefixes = []string{"NOTE", "STYLE", "REGION"}
)

// CueFile is an SRT or WebVTT document: blank line separated cues, each an
// optional identifier, a timing line and one or more lines of text.
type CueFile struct {
	format  Format
	entries []Entry
}

type cueBlock struct {
	line  int // line number of the block's first line
	lines []string
}

func parseCues(r io.Reader, format Format) (*CueFile, error) {
	blocks, err := readCueBlocks(r)
	if err != nil {
		return nil, fmt.Errorf("error reading %s file: %w", strings.ToUpper(string(format)), err)
	}

	file := &CueFile{format: format}
	for i, block := range blocks {
		if format == FormatVTT && isVTTMetadata(block.lines[0], i == 0) {
			continue
		}
		entry, ok, err := parseCue(block)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entry.Index = len(file.entries) + 1
		entry.Speaker, entry.Text = SplitSpeaker(entry.Text)
		if entry.Speaker == "" && format == FormatVTT {
			entry.Speaker, entry.Text = splitVoiceSpan(entry.Text)
		}
		file.entries = append(file.entries, entry)
	}
	return file, nil
}

func readCueBlocks(r io.Reader) ([]cueBlock, error) {
	var blocks []cueBlock
	open := false

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if n == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			open = false
			continue
		}
		if !open {
			blocks = append(blocks, cueBlock{line: n})
			open = true
		}
		last := &blocks[len(blocks)-1]
		last.lines = append(last.lines, line)
	}
	return blocks, scanner.Err()
}

func isVTTMetadata(first string, leading bool) bool {
	first = strings.TrimSpace(first)
	if leading && strings.HasPrefix(first, "WEBVTT") {
		return true
	}
	return lo.SomeBy(vttMetadataPrefixes, func(p string) bool {
		return strings.HasPrefix(first, p)
	})
}

// the timing line comes first, or second after a cue identifier; blocks
// without timing or text are skipped
func parseCue(block cueBlock) (Entry, bool, error) {
	for i := 0; i < len(block.lines) && i < 2; i++ {
		m := cueTimingRegex.FindStringSubmatch(block.lines[i])
		if m == nil {
			continue
		}
		start, err := parseCueTime(m[1])
		if err != nil {
			return Entry{}, false, fmt.Errorf("invalid start timestamp at line %d: %w", block.line+i, err)
		}
		end, err := parseCueTime(m[2])
		if err != nil {
			return Entry{}, false, fmt.Errorf("invalid end timestamp at line %d: %w", block.line+i, err)
		}
		text := block.lines[i+1:]
		if len(text) == 0 {
			return Entry{}, false, nil
		}
		return Entry{
			StartTime: start,
			EndTime:   end,
			Text:      strings.Join(text, "\n"),
		}, true, nil
	}
	return Entry{}, false, nil
}

// [h:]mm:ss followed by a separator and milliseconds
func parseCueTime(ts string) (time.Duration, error) {
	clock, millis := ts[:len(ts)-4], ts[len(ts)-3:]
	parts := strings.Split(clock, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}

	var values [4]int
	for i, part := range append(parts, millis) {
		v, err := strconv.Atoi(part)
		if err != nil {
			return 0, err
		}
		values[i] = v
	}
	h, m, s, ms := values[0], values[1], values[2], values[3]
	if m > 59 || s > 59 {
		return 0, fmt.Errorf("out of range timestamp %s", ts)
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

func splitVoiceSpan(text string) (string, string) {
	m := vttVoiceRegex.FindStringSubmatch(text)
	if m == nil {
		return "", text
	}
	rest := strings.ReplaceAll(strings.TrimPrefix(text, m[0]), "</v>", "")
	return strings.TrimSpace(m[1]), strings.TrimSpace(rest)
}

func (f *CueFile) Format() Format {
	return f.format
}

func (f *CueFile) Subtitle() *Subtitle {
	return &Subtitle{
		Entries: slices.Clone(f.entries),
		Format:  string(f.format),
	}
}

func (f *CueFile) SetSpeaker(index int, speaker string) error {
	if index < 0 || index >= len(f.entries) {
		return fmt.Errorf("index %d out of range (0-%d)", index, len(f.entries)-1)
	}
	f.entries[index].Speaker = strings.TrimSpace(speaker)
	return nil
}

func (f *CueFile) Write(path string) error {
	writer, err := NewWriter(f.format)
	if err != nil {
		return err
	}
	return writer.Write(f.Subtitle(), path)
}
