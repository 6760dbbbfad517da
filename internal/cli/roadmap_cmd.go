package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/studymap/internal/cli/formatter"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newRoadmapCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "View a plan's roadmap and track topic status",
	}
	cmd.AddCommand(
		newRoadmapGraphCmd(app),
		newRoadmapClickCmd(app),
		newRoadmapResetCmd(app),
		newRoadmapTUICmd(app),
	)
	return cmd
}

func newRoadmapGraphCmd(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph <plan>",
		Short: "Print the roadmap graph as a tree, JSON or Mermaid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			model, err := app.model(ctx, id)
			if err != nil {
				return err
			}
			g := model.Graph()

			out := cmd.OutOrStdout()
			switch format {
			case "tree":
				fmt.Fprint(out, formatter.FormatRoadmapTree(g))
			case "json":
				s, err := formatter.FormatGraphJSON(g)
				if err != nil {
					return err
				}
				fmt.Fprint(out, s)
			case "mermaid":
				fmt.Fprint(out, formatter.FormatMermaid(g))
			default:
				return fmt.Errorf("unknown format %q (want tree, json or mermaid)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "tree", "output format: tree, json or mermaid")
	return cmd
}

// newRoadmapClickCmd advances one topic to its next status. Each invocation
// is a fresh session with nothing selected, so the command selects and
// advances in one step.
func newRoadmapClickCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "click <plan> <topic>",
		Short: "Advance a topic: not started → in progress → completed → not started",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			planID, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			model, err := app.model(ctx, planID)
			if err != nil {
				return err
			}
			nodeID, err := resolveNodeID(model, args[1])
			if err != nil {
				return err
			}
			res, err := model.Advance(ctx, nodeID)
			if err != nil {
				return err
			}
			node, _ := model.Node(nodeID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s → %s\n", node.Label,
				formatter.StatusPill(res.Previous), formatter.StatusPill(res.Status))
			return nil
		},
	}
}

func newRoadmapResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset <plan>",
		Short: "Mark every topic of a plan as not started",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			planID, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if !yes && app.interactive() {
				ok := false
				if err := confirmForm("Reset all progress of this plan?", &ok).Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return nil
					}
					return err
				}
				if !ok {
					return nil
				}
			}
			model, err := app.model(ctx, planID)
			if err != nil {
				return err
			}
			if err := model.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset progress of %s\n", model.Plan().MainTopic)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newRoadmapTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui <plan>",
		Short: "Browse the roadmap interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() && app.Input == nil {
				return fmt.Errorf("roadmap tui needs an interactive terminal")
			}
			ctx := cmd.Context()
			planID, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			model, err := app.model(ctx, planID)
			if err != nil {
				return err
			}

			opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout())}
			if app.Input != nil {
				opts = append(opts, tea.WithInput(app.Input))
			} else {
				opts = append(opts, tea.WithAltScreen())
			}
			_, err = tea.NewProgram(newRoadmapModel(ctx, model, app.interactive()), opts...).Run()
			return err
		},
	}
}
