package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/studymap/internal/cli/formatter"
	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/progress"
	"github.com/alexanderramin/studymap/internal/service"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create, list, show and delete study plans",
	}
	cmd.AddCommand(
		newPlanCreateCmd(app),
		newPlanListCmd(app),
		newPlanShowCmd(app),
		newPlanDeleteCmd(app),
	)
	return cmd
}

func newPlanCreateCmd(app *App) *cobra.Command {
	var (
		topic, purpose string
		hours          float64
		offline        bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a roadmap for a topic",
		Long: `Create a study plan. The backend generates the roadmap; when it cannot
be reached, or with --offline, the roadmap is generated locally.
Without --topic on a terminal an interactive form is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := service.CreatePlanInput{
				Topic:          topic,
				AvailableHours: hours,
				Purpose:        domain.Purpose(purpose),
				Offline:        offline,
			}

			if strings.TrimSpace(topic) == "" {
				if !app.interactive() {
					return fmt.Errorf("--topic is required")
				}
				v := planFormValues{Purpose: in.Purpose, Offline: offline}
				if err := createPlanForm(&v).Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return nil
					}
					return err
				}
				h, err := parseHours(v.Hours)
				if err != nil {
					return err
				}
				in = service.CreatePlanInput{Topic: v.Topic, AvailableHours: h, Purpose: v.Purpose, Offline: v.Offline}
			}

			stop := func() {}
			if app.interactive() {
				stop = formatter.StartSpinner(cmd.ErrOrStderr(), "Generating roadmap for "+in.Topic)
			}
			plan, err := app.Plans.Create(cmd.Context(), in)
			stop()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created plan %s for %s (%s)\n\n", plan.ID, formatter.Bold(plan.MainTopic), formatter.SourceBadge(plan.Source))
			model, err := app.model(cmd.Context(), plan.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatPlanDetail(*plan, model.Graph(), app.now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "topic to study")
	cmd.Flags().Float64Var(&hours, "hours", 0, "hours available for the whole plan")
	cmd.Flags().StringVar(&purpose, "purpose", "", "purpose of study ("+purposeList()+")")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the backend and generate the roadmap locally")
	return cmd
}

func purposeList() string {
	names := make([]string, len(domain.Purposes))
	for i, p := range domain.Purposes {
		names[i] = string(p)
	}
	return strings.Join(names, "|")
}

func newPlanListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List study plans from the backend and local storage",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list, err := app.Plans.List(ctx)
			if err != nil {
				return err
			}

			data := formatter.PlanListData{
				Plans:   list.Plans,
				Offline: list.Offline,
				Stats:   make(map[string]progress.PlanStats, len(list.Plans)),
				Now:     app.now(),
			}
			for _, d := range list.Duplicates {
				data.Duplicates = append(data.Duplicates, d.PlanIDs)
			}
			if report, err := app.Progress.Summary(ctx); err == nil {
				for _, st := range report.Plans {
					data.Stats[st.PlanID] = st
				}
			} else {
				app.logger().Warn("loading plan progress", "error", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlanList(data))
			return nil
		},
	}
}

func newPlanShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <plan>",
		Short: "Show a plan with its roadmap and progress",
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
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlanDetail(model.Plan(), model.Graph(), app.now()))
			return nil
		},
	}
}

func newPlanDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <plan>",
		Aliases: []string{"rm"},
		Short:   "Delete a plan and its progress",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}

			if !yes && app.interactive() {
				ok := false
				if err := confirmForm(fmt.Sprintf("Delete plan %s and its progress?", id), &ok).Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return nil
					}
					return err
				}
				if !ok {
					return nil
				}
			}

			if err := app.Plans.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
