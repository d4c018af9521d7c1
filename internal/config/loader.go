package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// In production the environment is injected directly.
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
// It covers everything every command needs; ValidateRun adds what only the agent loop needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AgentName) == "" {
		return fmt.Errorf("AGENT_NAME is required")
	}

	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid GRPC_PORT: %d (must be 1-65535)", c.GRPCPort)
	}

	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}

	if c.GRPCPort == c.MetricsPort {
		return fmt.Errorf("GRPC_PORT and METRICS_PORT must differ (both %d)", c.GRPCPort)
	}

	switch c.StateBackend {
	case BackendFile:
		if c.StateDir == "" {
			return fmt.Errorf("STATE_DIR is required for the file backend")
		}
	case BackendRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST is required for the redis backend")
		}
		if c.RedisMaxRetries < 0 {
			return fmt.Errorf("invalid REDIS_MAX_RETRIES: %d", c.RedisMaxRetries)
		}
	default:
		return fmt.Errorf("invalid STATE_BACKEND: %q (must be %q or %q)", c.StateBackend, BackendFile, BackendRedis)
	}

	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("invalid REQUESTS_PER_MINUTE: %d (must be positive)", c.RequestsPerMinute)
	}
	if c.DailyCommentCap < 0 {
		return fmt.Errorf("invalid DAILY_COMMENT_CAP: %d", c.DailyCommentCap)
	}
	if c.PostCooldown < 0 || c.CommentCooldown < 0 || c.SuspensionFallback < 0 || c.HTTPTimeout < 0 {
		return fmt.Errorf("cooldowns and timeouts must not be negative")
	}
	if c.HeartbeatInterval < 0 {
		return fmt.Errorf("invalid HEARTBEAT_INTERVAL: %v", c.HeartbeatInterval)
	}

	u, err := url.Parse(c.PlatformBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid PLATFORM_BASE_URL: %q", c.PlatformBaseURL)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return nil
}

// ValidateRun checks the settings the agent loop needs on top of Validate.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.PlatformAPIKey == "" {
		return fmt.Errorf("PLATFORM_API_KEY is required to run the agent")
	}
	if c.OtelEnabled && c.ZipkinEndpoint == "" {
		return fmt.Errorf("ZIPKIN_ENDPOINT is required when OTEL_ENABLED is true")
	}
	return nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Namespace returns the per-identity storage namespace so that budgets and
// suspension state are never shared between agents.
func (c *Config) Namespace() string {
	ns := unsafeNameChars.ReplaceAllString(strings.ToLower(c.AgentName), "_")
	if ns == "" {
		ns = "default"
	}
	return ns
}

// StatePath returns the file backend directory for this identity.
func (c *Config) StatePath() string {
	return filepath.Join(c.StateDir, c.Namespace())
}
