package cli

import (
	"fmt"

	"github.com/alexanderramin/studymap/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newProgressCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [plan]",
		Short: "Show completion across all plans, or for one plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				id, err := resolvePlanID(ctx, app, args[0])
				if err != nil {
					return err
				}
				stats, err := app.Progress.PlanStats(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatPlanStats(*stats))
				return nil
			}

			report, err := app.Progress.Summary(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatProgressSummary(report.Plans, report.Summary, report.Offline))
			return nil
		},
	}
}
