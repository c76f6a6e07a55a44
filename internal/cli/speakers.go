package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/reinocast/speakersync/internal/speaker"
)

var speakersCmd = &cobra.Command{
	Use:   "speakers [subtitles]",
	Short: "List the speakers of a subtitle track",
	Long: `List the distinct speaker labels of a subtitle track in order of first
appearance, with their number of cues and total speaking time.

Examples:
  speakersync speakers transcribe.srt
  speakersync speakers -c speakersync.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSpeakers,
}

func init() {
	rootCmd.AddCommand(speakersCmd)
}

func runSpeakers(cmd *cobra.Command, args []string) error {
	location, err := subtitleLocation(args)
	if err != nil {
		return err
	}

	engine, _, err := loadEngine(context.Background(), location)
	if err != nil {
		return err
	}

	segments := engine.Segments()
	bySpeaker := lo.GroupBy(segments, func(s speaker.Segment) string {
		return s.Speaker
	})

	out := cmd.OutOrStdout()
	for _, name := range engine.Speakers() {
		group := bySpeaker[name]
		talk := lo.SumBy(group, func(s speaker.Segment) time.Duration {
			return s.End - s.Start
		})
		fmt.Fprintf(out, "%-24s %4d cues  %s\n", name, len(group), formatPosition(talk.Seconds()))
	}
	if unlabelled := len(bySpeaker[speaker.None]); unlabelled > 0 {
		fmt.Fprintf(out, "%-24s %4d cues\n", "(unlabelled)", unlabelled)
	}
	return nil
}
