package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reinocast/speakersync/internal/speaker"
)

var atCmd = &cobra.Command{
	Use:   "at <subtitles> <time...>",
	Short: "Print the active speaker at the given playback times",
	Long: `Resolve the active speaker at one or more playback times, in order, as a
player polling the track would see them.

Times are seconds, M:SS, H:MM:SS or durations like 1m2s.

Examples:
  speakersync at transcribe.srt 0 62.5 5:41
  speakersync at https://example.com/transcribe.srt 1:00:05`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAt,
}

func init() {
	rootCmd.AddCommand(atCmd)
}

func runAt(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	location := args[0]

	times := make([]float64, 0, len(args)-1)
	for _, a := range args[1:] {
		sec, err := parseTimeArg(a)
		if err != nil {
			return err
		}
		times = append(times, sec)
	}

	engine, _, err := loadEngine(ctx, location)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, sec := range times {
		change := engine.QueryAtSeconds(sec)
		name := change.Current
		if name == speaker.None {
			name = "(nobody)"
		}
		marker := ""
		if change.Changed {
			marker = "  *"
		}
		fmt.Fprintf(out, "%s  %s%s\n", formatPosition(sec), name, marker)
	}
	return nil
}
