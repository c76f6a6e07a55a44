package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Renderer is a Writer that can also produce the document in memory.
type Renderer interface {
	Writer
	Render(sub *Subtitle) string
}

// cueWriter renders the numbered cue formats, SRT and WebVTT, with the
// speaker as a "[Speaker]: " text prefix.
type cueWriter struct {
	header  string
	msDelim string
}

// ASSWriter renders an ASS script with speakers in the Name column.
type ASSWriter struct {
	Title    string
	FontName string
	FontSize int
}

const (
	assStyleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
	assStyle       = "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1"
	assEventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

func NewWriter(format Format) (Writer, error) {
	return newRenderer(format)
}

func newRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatSRT:
		return cueWriter{msDelim: ","}, nil
	case FormatVTT:
		return cueWriter{header: "WEBVTT\n\n", msDelim: "."}, nil
	case FormatASS:
		return &ASSWriter{Title: "Speaker Subtitles", FontName: "Arial", FontSize: 20}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// renders the subtitle in the given format
func Render(sub *Subtitle, format Format) (string, error) {
	r, err := newRenderer(format)
	if err != nil {
		return "", err
	}
	return r.Render(sub), nil
}

func (w cueWriter) Write(sub *Subtitle, path string) error {
	return writeFile(path, w.Render(sub))
}

func (w cueWriter) Render(sub *Subtitle) string {
	var sb strings.Builder
	sb.WriteString(w.header)
	for i, e := range sub.Entries {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			i+1, w.timestamp(e.StartTime), w.timestamp(e.EndTime), WithSpeaker(e))
	}
	return sb.String()
}

func (w cueWriter) timestamp(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, w.msDelim, ms)
}

func (w *ASSWriter) Write(sub *Subtitle, path string) error {
	return writeFile(path, w.Render(sub))
}

func (w *ASSWriter) Render(sub *Subtitle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Script Info]\nTitle: %s\nScriptType: v4.00+\nCollisions: Normal\nPlayDepth: 0\n\n", w.Title)
	fmt.Fprintf(&sb, "[V4+ Styles]\n%s\n"+assStyle+"\n\n", assStyleFormat, w.FontName, w.FontSize)
	fmt.Fprintf(&sb, "[Events]\n%s\n", assEventFormat)

	for _, e := range sub.Entries {
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,%s,0,0,0,,%s\n",
			assTimestamp(e.StartTime),
			assTimestamp(e.EndTime),
			strings.ReplaceAll(e.Speaker, ",", " "),
			strings.ReplaceAll(e.Text, "\n", `\N`))
	}
	return sb.String()
}

// h:mm:ss.cc
func assTimestamp(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, ms/10)
}

func clockParts(d time.Duration) (h, m, s, ms int) {
	total := int(max(d, 0).Milliseconds())
	return total / 3_600_000, total / 60_000 % 60, total / 1000 % 60, total % 1000
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// parses a user supplied format name
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "ass", "ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt, vtt, or ass", name)
	}
}

// file extension for the format, ".srt" when unknown
func (f Format) Extension() string {
	switch f {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".srt"
	}
}
