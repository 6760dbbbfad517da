package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/studymap/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the study plan backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" || username == "" {
				if !app.interactive() {
					return fmt.Errorf("--username and --password are required without a terminal")
				}
				if err := passwordForm(&username, &password).Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return nil
					}
					return err
				}
			}

			user, err := app.Auth.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			name := user.Username
			if name == "" {
				name = user.Email
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s %s\n", formatter.Bold(name), formatter.Dim("(id "+user.ID+")"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username or email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove this user's locally stored plans and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
