package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Subtitles   string            `yaml:"subtitles"`
	People      []string          `yaml:"people"`
	Media       MediaConfig       `yaml:"media"`
	Sync        SyncConfig        `yaml:"sync"`
	Logging     LoggingConfig     `yaml:"logging"`
	Transcript  TranscriptConfig  `yaml:"transcript"`
	Attribution AttributionConfig `yaml:"attribution"`
}

type MediaConfig struct {
	Path     string        `yaml:"path"`
	Duration time.Duration `yaml:"duration"`
}

type SyncConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Rate         float64       `yaml:"rate"`
	Watch        bool          `yaml:"watch"`
}

type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
}

type TranscriptConfig struct {
	DefaultSpeaker  string        `yaml:"default_speaker"`
	DefaultDuration time.Duration `yaml:"default_duration"`
	SkipLines       []string      `yaml:"skip_lines"`
	Format          string        `yaml:"format"`
	MaxDuration     time.Duration `yaml:"max_duration"`
}

type AttributionConfig struct {
	Provider    string       `yaml:"provider"`
	Model       string       `yaml:"model"`
	Prompt      string       `yaml:"prompt"`
	Speakers    []string     `yaml:"speakers"`
	BatchSize   int          `yaml:"batch_size"`
	Concurrency int          `yaml:"concurrency"`
	Rules       []RuleConfig `yaml:"rules"`
}

// one attribution rule; every field that is set must hold
type RuleConfig struct {
	Speaker      string        `yaml:"speaker"`
	UntilSegment int           `yaml:"until_segment"`
	From         time.Duration `yaml:"from"`
	To           time.Duration `yaml:"to"`
	Keywords     []string      `yaml:"keywords"`
}

const (
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultSegmentDuration = 5 * time.Second
	DefaultProvider        = "rules"
	DefaultBatchSize       = 50
	DefaultConcurrency     = 3
)

// header lines of a copied YouTube transcript panel
var DefaultSkipLines = []string{"Transcrição", "Pesquisar transcrição", "Transcript", "Search in video"}

var providers = []string{"rules", "gemini", "openai", "anthropic"}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Sync.PollInterval < 0 {
		return fmt.Errorf("sync.poll_interval must not be negative")
	}
	if c.Sync.Rate < 0 {
		return fmt.Errorf("sync.rate must not be negative")
	}
	if c.Media.Duration < 0 {
		return fmt.Errorf("media.duration must not be negative")
	}
	if c.Transcript.DefaultDuration < 0 {
		return fmt.Errorf("transcript.default_duration must not be negative")
	}

	c.Attribution.Provider = strings.ToLower(strings.TrimSpace(c.Attribution.Provider))
	if c.Attribution.Provider == "" {
		c.Attribution.Provider = DefaultProvider
	}
	if !lo.Contains(providers, c.Attribution.Provider) {
		return fmt.Errorf("attribution.provider %q is not one of %s",
			c.Attribution.Provider, strings.Join(providers, ", "))
	}

	for i, r := range c.Attribution.Rules {
		if strings.TrimSpace(r.Speaker) == "" {
			return fmt.Errorf("attribution.rules[%d].speaker is required", i)
		}
		if r.From < 0 || r.To < 0 || r.UntilSegment < 0 {
			return fmt.Errorf("attribution.rules[%d] has a negative bound", i)
		}
		if r.To > 0 && r.From > r.To {
			return fmt.Errorf("attribution.rules[%d].from is after to", i)
		}
	}

	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = DefaultPollInterval
	}
	if c.Sync.Rate == 0 {
		c.Sync.Rate = 1
	}
	if c.Transcript.DefaultDuration == 0 {
		c.Transcript.DefaultDuration = DefaultSegmentDuration
	}
	if c.Transcript.SkipLines == nil {
		c.Transcript.SkipLines = append([]string(nil), DefaultSkipLines...)
	}
	if c.Transcript.Format == "" {
		c.Transcript.Format = "srt"
	}
	if c.Attribution.BatchSize <= 0 {
		c.Attribution.BatchSize = DefaultBatchSize
	}
	if c.Attribution.Concurrency <= 0 {
		c.Attribution.Concurrency = DefaultConcurrency
	}
	if len(c.Attribution.Speakers) == 0 {
		c.Attribution.Speakers = c.ruleSpeakers()
	}

	return nil
}

// speakers named by the rules, then the people list, without repeats
func (c *Config) ruleSpeakers() []string {
	named := lo.Map(c.Attribution.Rules, func(r RuleConfig, _ int) string {
		return r.Speaker
	})
	return lo.Uniq(append(named, c.People...))
}

// APIKey returns the key for an LLM provider from the environment.
func APIKey(provider string) string {
	switch provider {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}
