package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/studymap/internal/config"
	"github.com/alexanderramin/studymap/internal/layout"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/server"
	"github.com/alexanderramin/studymap/internal/service"
	"github.com/alexanderramin/studymap/internal/viewmodel"
	"github.com/spf13/cobra"
)

// App holds the services and infrastructure CLI commands run against.
type App struct {
	Plans    service.PlanService
	Progress service.ProgressService
	Auth     service.AuthService
	Statuses viewmodel.StatusStore
	Layouts  *layout.Cache

	// Server backs "serve"; nil disables the command at run time.
	Server    *server.Server
	ServeAddr string

	Logger *slog.Logger

	// Setup, when set, runs before every command with the parsed flags so
	// the caller can load configuration and wire the fields above. Teardown
	// runs after the command.
	Setup    func(cmd *cobra.Command) error
	Teardown func()

	// IsInteractive reports whether stdin is a terminal; forms, prompts and
	// the spinner only run when it returns true.
	IsInteractive func() bool
	// Input replaces stdin for the roadmap TUI, used by tests.
	Input io.Reader

	Now func() time.Time
}

// NewRootCmd creates the top-level "studymap" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "studymap",
		Short:         "Study roadmaps with progress tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Setup == nil {
				return nil
			}
			return app.Setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Teardown != nil {
				app.Teardown()
			}
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newPlanCmd(app),
		newRoadmapCmd(app),
		newProgressCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newServeCmd(app),
	)
	return root
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return logging.NewNop()
	}
	return a.Logger
}

// model builds the roadmap view model of a plan.
func (a *App) model(ctx context.Context, planID string) (*viewmodel.Model, error) {
	plan, err := a.Plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	return viewmodel.New(ctx, *plan, a.Statuses, viewmodel.Options{
		Cache:  a.Layouts,
		Logger: a.logger(),
	})
}
