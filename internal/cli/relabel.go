package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/reinocast/speakersync/internal/subtitle"
)

var relabelUnlabelled bool

var relabelCmd = &cobra.Command{
	Use:   "relabel <subtitles> <old> <new>",
	Short: "Rename a speaker throughout a subtitle file",
	Long: `Rename a speaker in every cue of a subtitle file and write it back in the
same format. ASS scripts keep their styles and only the Name column changes.

The old name matches case-insensitively. Without -o the result is written
next to the input as <name>.relabeled<ext>.

Examples:
  speakersync relabel transcribe.srt "Gabriel" "Gabriel Tintor"
  speakersync relabel episode.ass "" "Narrator" --unlabelled -o episode.ass`,
	Args: cobra.ExactArgs(3),
	RunE: runRelabel,
}

func init() {
	relabelCmd.Flags().
		BoolVar(&relabelUnlabelled, "unlabelled", false, "Also assign the new name to cues without a speaker")
	rootCmd.AddCommand(relabelCmd)
}

func runRelabel(cmd *cobra.Command, args []string) error {
	location, from, to := args[0], strings.TrimSpace(args[1]), strings.TrimSpace(args[2])
	if to == "" {
		return fmt.Errorf("new speaker name is required")
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		if !isLocal(location) {
			return fmt.Errorf("--output is required for remote subtitles")
		}
		ext := filepath.Ext(location)
		outputPath = strings.TrimSuffix(location, ext) + ".relabeled" + ext
	}

	logger.Infow("Loading subtitles", "location", location)
	file, err := subtitle.Fetch(context.Background(), location)
	if err != nil {
		return fmt.Errorf("failed to load subtitles: %w", err)
	}

	entries := file.Subtitle().Entries
	targets := lo.FilterMap(entries, func(e subtitle.Entry, i int) (int, bool) {
		if e.Speaker == "" {
			return i, relabelUnlabelled
		}
		return i, from != "" && strings.EqualFold(e.Speaker, from)
	})
	if len(targets) == 0 {
		return fmt.Errorf("no cue matches speaker %q", from)
	}

	for _, i := range targets {
		if err := file.SetSpeaker(i, to); err != nil {
			return fmt.Errorf("failed to relabel cue %d: %w", i+1, err)
		}
	}

	if err := file.Write(outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	logger.Infow("Relabelled speaker",
		"from", from,
		"to", to,
		"cues", len(targets),
		"output", outputPath,
	)

	fmt.Fprintf(cmd.OutOrStdout(), "Relabelled %d cues: %s\n", len(targets), outputPath)
	return nil
}
