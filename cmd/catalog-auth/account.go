package main

import (
	"bufio"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	authclient "github.com/goliatone/go-auth-client"
)

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
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

			msg, err := a.gateway.Register(cmd.Context(), args[0], args[1], pwd)
			if err != nil {
				return describe(err)
			}
			cmd.Println(msg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func newResetPasswordCmd(opts *rootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			pwd, err := secret(cmd, in, password, "New password")
			if err != nil {
				return err
			}

			msg, err := a.gateway.ResetPassword(cmd.Context(), args[0], pwd)
			if err != nil {
				return describe(err)
			}
			cmd.Println(msg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "new password (prompted when empty)")
	return cmd
}

func newUpdateAccountCmd(opts *rootOptions) *cobra.Command {
	var username, email, current string

	cmd := &cobra.Command{
		Use:   "update-account",
		Short: "Change username or email after confirming the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			screen := authclient.NewAccountSettings(a.gateway, a.store,
				authclient.WithAccountSettingsLogger(a.logger.With("account")))
			screen.Enter(ctx, a.store.Current())
			defer screen.Leave(ctx)

			in := bufio.NewReader(cmd.InOrStdin())
			pwd, err := secret(cmd, in, current, "Current password")
			if err != nil {
				return err
			}
			if err := screen.Verify(ctx, []byte(pwd)); err != nil {
				return describe(err)
			}

			if cmd.Flags().Changed("username") {
				screen.SetUsername(username)
			}
			if cmd.Flags().Changed("email") {
				screen.SetEmail(email)
			}

			updated, err := screen.Submit(ctx)
			if err != nil {
				return describe(err)
			}
			cmd.Printf("Account information updated: %s <%s>\n", updated.Username, updated.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&current, "current-password", "", "current password (prompted when empty)")
	return cmd
}

func newChangePasswordCmd(opts *rootOptions) *cobra.Command {
	var current, next, confirm string

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the password of the current account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			screen := authclient.NewAccountSettings(a.gateway, a.store)
			screen.Enter(ctx, a.store.Current())
			defer screen.Leave(ctx)

			in := bufio.NewReader(cmd.InOrStdin())
			pwd, err := secret(cmd, in, current, "Current password")
			if err != nil {
				return err
			}
			if err := screen.Verify(ctx, []byte(pwd)); err != nil {
				return describe(err)
			}

			if next, err = secret(cmd, in, next, "New password"); err != nil {
				return err
			}
			if confirm, err = secret(cmd, in, confirm, "Confirm new password"); err != nil {
				return err
			}

			msg, err := screen.ChangePassword(ctx, next, confirm)
			if err != nil {
				return describe(err)
			}
			cmd.Println(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current-password", "", "current password (prompted when empty)")
	cmd.Flags().StringVar(&next, "new-password", "", "new password (prompted when empty)")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "new password again (prompted when empty)")
	return cmd
}

// describe turns a client error into the message shown to the user, with the
// per field validation messages when there are any.
func describe(err error) error {
	fields := authclient.FieldErrors(err)
	if len(fields) == 0 {
		return errors.New(authclient.FailureReason(err))
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s: %s", name, fields[name]))
	}
	return fmt.Errorf("%s\n%s", authclient.FailureReason(err), strings.Join(lines, "\n"))
}
