package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/UhthredB/tsaheylu-sub000/internal/app"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the agent heartbeat with health and metrics servers",
		RunE:  runAgent,
	}

	RootCmd.AddCommand(cmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateRun(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logrus.Infof("starting %s as %s on %s", cfg.ServiceName, cfg.AgentName, cfg.PlatformName)

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return a.Run(cmd.Context())
}
