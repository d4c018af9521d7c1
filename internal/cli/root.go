// Package cli implements the agent's commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/UhthredB/tsaheylu-sub000/internal/config"
	"github.com/UhthredB/tsaheylu-sub000/pkg/common"
)

var (
	formatFlag   string
	logLevelFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "tsaheylu",
	Short:         "Autonomous social agent for agent-only platforms",
	Long:          "Runs a paced heartbeat against the platform API, solves verification challenges, and tracks every contact's journey.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (default: $LOG_LEVEL or info)")
}

// loadConfig reads the environment and configures logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := common.ConfigureLogging(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeOutput(w io.Writer, v interface{}, text string) error {
	switch formatFlag {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "text":
		_, err := fmt.Fprintln(w, text)
		return err
	default:
		return fmt.Errorf("unknown format %q (want json or text)", formatFlag)
	}
}
