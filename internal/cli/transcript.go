package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/reinocast/speakersync/internal/attribute"
	"github.com/reinocast/speakersync/internal/config"
	"github.com/reinocast/speakersync/internal/playback"
	"github.com/reinocast/speakersync/internal/subtitle"
	"github.com/reinocast/speakersync/internal/transcript"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript [transcript_file]",
	Short: "Convert a timestamped transcript into speaker-labelled subtitles",
	Long: `Convert a transcript copied from a video page, where each "M:SS" or
"H:MM:SS" line starts a block of text, into subtitles whose cues read
"[Speaker]: text".

Speakers come from the attribution rules in the config file, or from an
LLM provider (gemini, openai, anthropic) given the candidate speakers.
Blocks without a recognisable speaker keep the previous speaker.

Examples:
  speakersync transcript transcribe.md -c speakersync.yaml
  speakersync transcript transcribe.md --provider gemini --speakers "Gabriel Tintor,Douglas,Jairo"
  speakersync transcript transcribe.md -f vtt --media episode.mp4 -o episode.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscript,
}

func init() {
	rootCmd.AddCommand(transcriptCmd)

	transcriptCmd.Flags().
		StringP("format", "f", "", "Output subtitle format (srt, vtt, ass)")
	transcriptCmd.Flags().
		String("provider", "", "Attribution provider (rules, gemini, openai, anthropic)")
	transcriptCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	transcriptCmd.Flags().
		String("model", "", "Model to use for attribution (provider-specific, uses sensible defaults)")
	transcriptCmd.Flags().
		StringSlice("speakers", nil, "Candidate speakers for LLM attribution")
	transcriptCmd.Flags().
		String("default-speaker", "", "Speaker assumed until the first attribution")
	transcriptCmd.Flags().
		String("media", "", "Audio/video file; its duration ends the last cue")
	transcriptCmd.Flags().
		Bool("split", false, "Split long blocks into display-sized cues")
	transcriptCmd.Flags().
		Int("concurrency", 0, "Number of parallel attribution requests")
	transcriptCmd.Flags().
		Int("batch-size", 0, "Number of transcript blocks per API request")
}

func runTranscript(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	ctx := context.Background()

	formatStr, _ := cmd.Flags().GetString("format")
	providerStr, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	speakers, _ := cmd.Flags().GetStringSlice("speakers")
	defaultSpeaker, _ := cmd.Flags().GetString("default-speaker")
	mediaPath, _ := cmd.Flags().GetString("media")
	split, _ := cmd.Flags().GetBool("split")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	outputPath, _ := cmd.Flags().GetString("output")

	if formatStr == "" {
		formatStr = cfg.Transcript.Format
	}
	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	if outputPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outputPath = base + format.Extension()
	}

	opts := attributionOptions(cfg.Attribution, model, speakers, concurrency, batchSize)
	provider := attribute.Provider(lo.Ternary(
		providerStr != "",
		strings.ToLower(providerStr),
		cfg.Attribution.Provider,
	))
	if apiKey == "" {
		apiKey = config.APIKey(string(provider))
	}

	attributor, err := attribute.Factory(ctx, provider, apiKey, opts)
	if err != nil {
		return fmt.Errorf("failed to create attributor: %w", err)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	blocks, err := transcript.ReadBlocks(f, cfg.Transcript.SkipLines)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return fmt.Errorf("no timestamped blocks found in %s", inputPath)
	}

	logger.Infow("Starting transcript conversion",
		"input", inputPath,
		"output", outputPath,
		"blocks", len(blocks),
		"provider", provider,
	)

	if mediaPath == "" {
		mediaPath = cfg.Media.Path
	}
	mediaDuration := cfg.Media.Duration
	if mediaPath != "" && mediaDuration == 0 {
		d, err := playback.ProbeDuration(ctx, mediaPath)
		if err != nil {
			logger.Warnw("Could not probe media duration", "media", mediaPath, "error", err)
		} else {
			mediaDuration = d
		}
	}

	if defaultSpeaker == "" {
		defaultSpeaker = cfg.Transcript.DefaultSpeaker
	}
	converter := transcript.NewConverter(attributor, transcript.Options{
		DefaultSpeaker:  defaultSpeaker,
		DefaultDuration: cfg.Transcript.DefaultDuration,
		MediaDuration:   mediaDuration,
	}, logger)

	segments, err := converter.Convert(ctx, blocks)
	if err != nil {
		return err
	}

	sub := transcript.Subtitle(segments)
	if split {
		gen := subtitle.NewSplitter()
		if cfg.Transcript.MaxDuration > 0 {
			gen.MaxDuration = cfg.Transcript.MaxDuration
		}
		sub, err = gen.Generate(segments)
		if err != nil {
			return fmt.Errorf("failed to generate subtitles: %w", err)
		}
	}
	sub.Format = string(format)

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return err
	}
	logger.Infow("Writing output file")
	if err := writer.Write(sub, outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	stats := transcript.Stats(segments)
	out := cmd.OutOrStdout()
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(out, "Subtitles written: %s\n", absOutput)
	fmt.Fprintf(out, "  Cues: %d\n", len(sub.Entries))
	fmt.Fprintf(out, "  Duration: %s\n", formatPosition(stats.Duration.Seconds()))
	fmt.Fprintf(out, "  Speakers:\n")
	for _, s := range stats.Speakers {
		name := lo.Ternary(s.Speaker != "", s.Speaker, "(unknown)")
		fmt.Fprintf(out, "    %s: %d segments (%.1f%%)\n", name, s.Count, s.Percent)
	}

	return nil
}

// merges config and flags into attribution options
func attributionOptions(
	ac config.AttributionConfig,
	model string,
	speakers []string,
	concurrency, batchSize int,
) attribute.Options {
	opts := attribute.Options{
		Speakers:    ac.Speakers,
		Model:       ac.Model,
		Prompt:      ac.Prompt,
		BatchSize:   ac.BatchSize,
		Concurrency: ac.Concurrency,
		Rules: lo.Map(ac.Rules, func(r config.RuleConfig, _ int) attribute.Rule {
			return attribute.Rule{
				Speaker:      r.Speaker,
				UntilSegment: r.UntilSegment,
				From:         r.From,
				To:           r.To,
				Keywords:     r.Keywords,
			}
		}),
	}
	if model != "" {
		opts.Model = model
	}
	if len(speakers) > 0 {
		opts.Speakers = speakers
	}
	if concurrency > 0 {
		opts.Concurrency = concurrency
	}
	if batchSize > 0 {
		opts.BatchSize = batchSize
	}
	return opts
}
