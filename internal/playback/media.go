package playback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/reinocast/speakersync/internal/ffmpeg"
)

var mediaExtensions = []string{
	".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v", ".mpeg", ".mpg",
	".mp3", ".wav", ".aac", ".flac", ".ogg", ".m4a", ".opus",
}

// checks if the file looks like audio or video based on extension
func IsMediaFile(path string) bool {
	return lo.Contains(mediaExtensions, strings.ToLower(filepath.Ext(path)))
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration reads the duration of an audio/video file. ffprobe from
// PATH is tried first, then the bundled binary.
func ProbeDuration(ctx context.Context, filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", filePath)
	}

	out, err := ffmpeg.Probe(filePath)
	if err != nil {
		out, err = probeBundled(ctx, filePath)
		if err != nil {
			return 0, err
		}
	}

	return parseProbeDuration([]byte(out))
}

func probeBundled(ctx context.Context, filePath string) (string, error) {
	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffprobe failed: %w", err)
	}
	return out.String(), nil
}

func parseProbeDuration(raw []byte) (time.Duration, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	value := strings.TrimSpace(probe.Format.Duration)
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}

	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", value, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %q", value)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
