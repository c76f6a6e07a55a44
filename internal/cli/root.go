package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reinocast/speakersync/internal/config"
	"github.com/reinocast/speakersync/internal/logging"
)

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "speakersync",
	Short: "Highlight the active speaker of a video from its subtitles",
	Long: `speakersync follows video playback time through a subtitle file whose
cues are labelled "[Speaker]: text" and reports which speaker is talking.

It can also turn a copied, timestamped transcript into such a subtitle file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		} else {
			cfg = config.Default()
		}
		logger = logging.NewLogger(verbose || cfg.Logging.Verbose)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}

// subtitle location from the first argument, falling back to the config
func subtitleLocation(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg != nil && cfg.Subtitles != "" {
		return cfg.Subtitles, nil
	}
	return "", fmt.Errorf("no subtitle file given: pass a path or URL, or set subtitles in the config")
}
