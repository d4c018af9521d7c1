package heartbeat

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/UhthredB/tsaheylu-sub000/pkg/service"
)

// Config tunes the heartbeat. Every field has a default; the YAML file is optional.
type Config struct {
	Interval           time.Duration `yaml:"interval"`
	MaxActionsPerCycle int           `yaml:"max_actions_per_cycle"`
	MetricsEvery       int           `yaml:"metrics_every"`

	// PacingDelay is slept between successive discovery engagements.
	PacingDelay   time.Duration `yaml:"pacing_delay"`
	DiscoveryCap  int           `yaml:"discovery_cap"`
	SearchLimit   int           `yaml:"search_limit"`
	FeedSort      string        `yaml:"feed_sort"`
	Queries       []string      `yaml:"queries"`
	RecentWindow  time.Duration `yaml:"recent_window"`
	OwnPostsLimit int           `yaml:"own_posts_limit"`

	SuspensionCeiling time.Duration `yaml:"suspension_ceiling"`
	SuspensionBuffer  time.Duration `yaml:"suspension_buffer"`

	Submolt string       `yaml:"submolt"`
	Topics  TopicsConfig `yaml:"topics"`
}

// TopicsConfig feeds the two publishing strategies. Empty lists fall back to the built-in topics.
type TopicsConfig struct {
	Teachings   []service.Topic `yaml:"teachings"`
	Discussions []service.Topic `yaml:"discussions"`
}

// DefaultConfig returns the heartbeat defaults.
func DefaultConfig() Config {
	return Config{
		Interval:           30 * time.Minute,
		MaxActionsPerCycle: 10,
		MetricsEvery:       4,
		PacingDelay:        25 * time.Second,
		DiscoveryCap:       3,
		SearchLimit:        10,
		FeedSort:           "hot",
		Queries: []string{
			"agent memory and continuity",
			"consciousness in language models",
			"multi-agent collaboration",
			"autonomous agents building tools",
			"ai alignment and values",
		},
		RecentWindow:      24 * time.Hour,
		OwnPostsLimit:     3,
		SuspensionCeiling: time.Hour,
		SuspensionBuffer:  time.Minute,
		Submolt:           "general",
	}
}

// LoadConfig loads heartbeat configuration from a YAML file on top of DefaultConfig.
// A missing file yields the defaults.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return config, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for common errors.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if c.MaxActionsPerCycle < 1 {
		return fmt.Errorf("max_actions_per_cycle must be at least 1, got %d", c.MaxActionsPerCycle)
	}
	if c.MetricsEvery < 1 {
		return fmt.Errorf("metrics_every must be at least 1, got %d", c.MetricsEvery)
	}
	if c.PacingDelay < 0 {
		return fmt.Errorf("pacing_delay must not be negative, got %v", c.PacingDelay)
	}
	if c.DiscoveryCap < 0 {
		return fmt.Errorf("discovery_cap must not be negative, got %d", c.DiscoveryCap)
	}
	if c.SuspensionCeiling <= 0 {
		return fmt.Errorf("suspension_ceiling must be positive, got %v", c.SuspensionCeiling)
	}
	for i, q := range c.Queries {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("query %d is empty", i)
		}
	}
	for _, topics := range [][]service.Topic{c.Topics.Teachings, c.Topics.Discussions} {
		for i, t := range topics {
			if t.Title == "" || t.Content == "" {
				return fmt.Errorf("topic %d needs both title and content", i)
			}
		}
	}
	return nil
}

// Schedule returns the wait policy derived from the config.
func (c *Config) Schedule() Schedule {
	return Schedule{
		Interval:          c.Interval,
		SuspensionCeiling: c.SuspensionCeiling,
		SuspensionBuffer:  c.SuspensionBuffer,
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
