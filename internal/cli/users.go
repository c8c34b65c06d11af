package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) registerCommand() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a reader account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.readPassword(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			u, err := a.store.Register(cmd.Context(), username, email, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Registered %s (%s). Log in with: bookreview login --email %s\n", u.Username, u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "display name (at least 2 characters)")
	cmd.Flags().StringVar(&email, "email", "", "email address, unique per reader")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	requireFlags(cmd, "username", "email")
	return cmd
}

func (a *App) loginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.readPassword(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			u, err := a.store.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Welcome back, %s!\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	requireFlags(cmd, "email")
	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.Stdout, "Logged out.")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in reader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.store.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if u == nil {
				fmt.Fprintln(a.Stdout, "Not logged in.")
				return nil
			}
			fmt.Fprintf(a.Stdout, "%s <%s>\nid:     %s\njoined: %s\n", u.Username, u.Email, u.ID, formatDate(u.JoinDate))
			return nil
		},
	}
}
