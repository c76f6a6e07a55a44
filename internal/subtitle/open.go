package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File is a parsed subtitle file that keeps its format specific metadata,
// so relabelled speakers can be written back in the same format.
type File interface {
	Format() Format
	Subtitle() *Subtitle
	// SetSpeaker replaces the speaker of the cue at the zero based index.
	SetSpeaker(index int, speaker string) error
	Write(path string) error
}

func Open(path string) (File, error) {
	format, ok := formatForExtension(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("unsupported subtitle format: %s", filepath.Ext(path))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", strings.ToUpper(string(format)), err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Parse(file, format)
}

// parses subtitle content of a known format
func Parse(r io.Reader, format Format) (File, error) {
	switch format {
	case FormatSRT, FormatVTT:
		return parseCues(r, format)
	case FormatASS:
		return parseASS(r)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", format)
	}
}

// guesses the format from the name's extension, falling back to the content
func DetectFormat(name string, content []byte) Format {
	if format, ok := formatForExtension(filepath.Ext(name)); ok {
		return format
	}

	head := bytes.TrimLeft(bytes.TrimPrefix(content, []byte("\ufeff")), " \t\r\n")
	switch {
	case bytes.HasPrefix(head, []byte("WEBVTT")):
		return FormatVTT
	case bytes.HasPrefix(head, []byte("[Script Info]")):
		return FormatASS
	default:
		return FormatSRT
	}
}

func formatForExtension(ext string) (Format, bool) {
	switch strings.ToLower(ext) {
	case ".srt":
		return FormatSRT, true
	case ".vtt":
		return FormatVTT, true
	case ".ass", ".ssa":
		return FormatASS, true
	default:
		return "", false
	}
}
