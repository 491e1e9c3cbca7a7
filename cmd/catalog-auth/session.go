package main

import (
	"bufio"
	"fmt"
	"time"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	authclient "github.com/goliatone/go-auth-client"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and keep the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			pwd, err := secret(cmd, in, password, "Password")
			if err != nil {
				return err
			}

			identity, err := a.gateway.Login(cmd.Context(), args[0], pwd)
			if err != nil {
				return fmt.Errorf("%s", authclient.FailureReason(err))
			}

			cmd.Printf("Logged in as %s (%s)\n", identity.Username, identity.Role)
			cmd.Printf("Landing page: %s\n", authclient.LandingRoute(identity))
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.gateway.Logout(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Logged out")
			return nil
		},
	}
}

// whoami is the printable view of the session, the token itself is never shown
type whoami struct {
	Authenticated bool       `json:"authenticated"`
	ID            int64      `json:"id,omitempty"`
	Username      string     `json:"username,omitempty"`
	Email         string     `json:"email,omitempty"`
	Role          string     `json:"role,omitempty"`
	Capability    string     `json:"capability"`
	Landing       string     `json:"landing"`
	TokenExpires  *time.Time `json:"token_expires,omitempty"`
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			identity := a.store.Current()
			view := whoami{
				Authenticated: identity != nil,
				Capability:    authclient.CapabilityOf(identity).String(),
				Landing:       authclient.LandingRoute(identity),
			}
			if identity != nil {
				view.ID = identity.ID
				view.Username = identity.Username
				view.Email = identity.Email
				view.Role = string(identity.Role)
				if exp, ok := identity.TokenExpiry(); ok {
					view.TokenExpires = &exp
				}
			}

			cmd.Println(print.MaybePrettyJSON(view))
			return nil
		},
	}
}
