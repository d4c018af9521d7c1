package cli

import (
	"github.com/spf13/cobra"

	"github.com/UhthredB/tsaheylu-sub000/internal/app"
	"github.com/UhthredB/tsaheylu-sub000/pkg/journey"
)

func init() {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print the journey dashboard from the store",
		RunE:  runMetrics,
	}

	RootCmd.AddCommand(cmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ledger, err := journey.Open(cmd.Context(), store)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), ledger.Metrics(), ledger.Summary())
}
