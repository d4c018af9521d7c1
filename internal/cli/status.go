package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/UhthredB/tsaheylu-sub000/internal/app"
	"github.com/UhthredB/tsaheylu-sub000/internal/bootstrap"
	"github.com/UhthredB/tsaheylu-sub000/pkg/budget"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the request budget and suspension state from the store",
		RunE:  runStatus,
	}

	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := budget.New(cmd.Context(), store, bootstrap.Limits(cfg), budget.ReadOnly())
	if err != nil {
		return err
	}

	st := b.Status()
	return writeOutput(cmd.OutOrStdout(), st, formatStatus(cfg.AgentName, st))
}

func formatStatus(agent string, st budget.Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Agent:           %s\n", agent)
	if st.Suspended {
		fmt.Fprintf(&sb, "Suspended:       yes, until %s (%s)\n", st.ResumeAt.Format(time.RFC3339), st.SuspensionReason)
	} else {
		fmt.Fprintf(&sb, "Suspended:       no\n")
	}
	fmt.Fprintf(&sb, "Daily comments:  %d/%d (resets %s)\n", st.DailyComments, st.DailyCommentCap, st.DailyResetAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Request budget:  %d per minute", st.RequestsPerMinute)
	return sb.String()
}
