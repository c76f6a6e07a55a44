package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reinocast/speakersync/internal/highlight"
	"github.com/reinocast/speakersync/internal/playback"
	"github.com/reinocast/speakersync/internal/session"
	"github.com/reinocast/speakersync/internal/speaker"
	"github.com/reinocast/speakersync/internal/watcher"
)

var playCmd = &cobra.Command{
	Use:   "play [subtitles]",
	Short: "Play a subtitle track against the clock and follow the active speaker",
	Long: `Play a speaker-labelled subtitle track (local path or http(s) URL) in real
time and print the people list whenever the active speaker changes.

The track is played for the duration of --media (probed with ffprobe),
--duration, or until its last cue ends. With --interactive, type "p" to
pause, "r" to resume, "s <time>" to seek and "q" to quit.

Examples:
  speakersync play transcribe.srt
  speakersync play https://example.com/transcribe.srt --people "Gabriel Tintor,Douglas"
  speakersync play episode.vtt --media episode.mp4 --rate 4 --json
  speakersync play transcribe.srt --watch --interactive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().
		StringSlice("people", nil, "People list to highlight (defaults to config, then the track's speakers)")
	playCmd.Flags().
		String("media", "", "Audio/video file whose duration bounds playback")
	playCmd.Flags().
		Duration("duration", 0, "Playback duration (overrides --media)")
	playCmd.Flags().
		Duration("start", 0, "Start position")
	playCmd.Flags().
		Float64("rate", 0, "Playback speed multiplier (default 1)")
	playCmd.Flags().
		Duration("interval", 0, "Polling interval (default 100ms)")
	playCmd.Flags().
		Bool("json", false, "Print speaker changes as JSON lines")
	playCmd.Flags().
		Bool("watch", false, "Reload the subtitle file when it changes on disk")
	playCmd.Flags().
		Bool("interactive", false, "Read playback controls from stdin")
}

func runPlay(cmd *cobra.Command, args []string) error {
	location, err := subtitleLocation(args)
	if err != nil {
		return err
	}

	people, _ := cmd.Flags().GetStringSlice("people")
	mediaPath, _ := cmd.Flags().GetString("media")
	duration, _ := cmd.Flags().GetDuration("duration")
	start, _ := cmd.Flags().GetDuration("start")
	rate, _ := cmd.Flags().GetFloat64("rate")
	interval, _ := cmd.Flags().GetDuration("interval")
	jsonOut, _ := cmd.Flags().GetBool("json")
	watch, _ := cmd.Flags().GetBool("watch")
	interactive, _ := cmd.Flags().GetBool("interactive")

	if rate < 0 {
		return fmt.Errorf("rate must be positive, got %v", rate)
	}
	if rate == 0 {
		rate = cfg.Sync.Rate
	}
	if interval <= 0 {
		interval = cfg.Sync.PollInterval
	}
	if mediaPath == "" {
		mediaPath = cfg.Media.Path
	}
	watch = watch || cfg.Sync.Watch
	jsonOut = jsonOut || cfg.Logging.JSON

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, loader, err := loadEngine(ctx, location)
	if err != nil {
		return err
	}

	if len(people) == 0 {
		people = cfg.People
	}
	if len(people) == 0 {
		people = engine.Speakers()
	}
	if len(people) == 0 {
		return fmt.Errorf("nobody to highlight: pass --people or label the cues with [Speaker]:")
	}

	duration = resolveDuration(ctx, duration, mediaPath, engine)
	clock := playback.NewClock(duration, playback.WithRate(rate))

	out := cmd.OutOrStdout()
	board := highlight.NewBoard(people, highlight.WithOnChange(func(items []highlight.Item) {
		if !jsonOut {
			fmt.Fprintf(out, "%s  %s\n", formatPosition(clock.CurrentTime()), renderBoard(items))
		}
	}))
	sinks := []highlight.Sink{board}
	if verbose {
		sinks = append(sinks, highlight.NewLogSink(logger))
	}
	var jsonSink *highlight.JSONSink
	if jsonOut {
		jsonSink = highlight.NewJSONSink(out)
		sinks = append(sinks, jsonSink)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := session.New(engine, clock, highlight.Multi(sinks...),
		session.WithInterval(interval),
		session.WithLogger(logger),
		session.WithEventHook(func(ev playback.Event) {
			if ev == playback.Ended {
				cancel()
			}
		}),
	)

	logger.Infow("Starting playback",
		"location", location,
		"duration", duration,
		"rate", rate,
		"people", len(people),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return clock.Run(gctx) })
	g.Go(func() error { return sess.Run(gctx) })

	if watch {
		if isLocal(location) {
			w, err := watcher.New(location, watcher.Reloader(engine, loader, logger), logger)
			if err != nil {
				cancel()
				_ = g.Wait()
				return fmt.Errorf("failed to watch subtitles: %w", err)
			}
			defer w.Stop()
			g.Go(func() error { return w.Start(gctx) })
		} else {
			logger.Warnw("Ignoring --watch for a remote subtitle file", "location", location)
		}
	}

	if start > 0 {
		clock.Seek(start)
	}
	clock.Play()

	if interactive {
		go readControls(gctx, os.Stdin, clock, cancel)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if jsonSink != nil && jsonSink.Err() != nil {
		return fmt.Errorf("failed to write speaker changes: %w", jsonSink.Err())
	}

	if !jsonOut {
		fmt.Fprintf(out, "Playback stopped at %s\n", formatPosition(clock.CurrentTime()))
	}
	return nil
}

// playback length from the flag, the config, the media file or the track
func resolveDuration(
	ctx context.Context,
	flagValue time.Duration,
	mediaPath string,
	engine *speaker.Engine,
) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if cfg.Media.Duration > 0 {
		return cfg.Media.Duration
	}

	if mediaPath != "" {
		if !playback.IsMediaFile(mediaPath) {
			logger.Warnw("Media file has an unexpected extension", "media", mediaPath)
		}
		d, err := playback.ProbeDuration(ctx, mediaPath)
		if err == nil {
			logger.Infow("Probed media duration", "media", mediaPath, "duration", d)
			return d
		}
		logger.Warnw("Could not probe media duration, using the subtitle track",
			"media", mediaPath,
			"error", err,
		)
	}

	segments := engine.Segments()
	if len(segments) == 0 {
		return 0
	}
	return lo.MaxBy(segments, func(a, b speaker.Segment) bool {
		return a.End > b.End
	}).End
}
