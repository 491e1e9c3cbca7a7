package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// rootOptions holds the global flags available to all subcommands.
type rootOptions struct {
	envFiles []string
	baseURL  string
	storage  string
	logLevel string
}

// NewRootCmd creates the root command for the catalog-auth CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "catalog-auth",
		Short: "Session and access control client for the character catalog",
		Long: `catalog-auth signs in to the character catalog service, keeps the
session across runs and answers which screens the current account may open.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "catalog service base URL")
	cmd.PersistentFlags().StringVar(&opts.storage, "storage", "", "session storage: file, sqlite, redis or memory")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newLogoutCmd(opts))
	cmd.AddCommand(newWhoamiCmd(opts))
	cmd.AddCommand(newRegisterCmd(opts))
	cmd.AddCommand(newResetPasswordCmd(opts))
	cmd.AddCommand(newUpdateAccountCmd(opts))
	cmd.AddCommand(newChangePasswordCmd(opts))
	cmd.AddCommand(newCanCmd(opts))
	cmd.AddCommand(newMenuCmd(opts))
	cmd.AddCommand(newFetchCmd(opts))
	cmd.AddCommand(newDevServerCmd())

	return cmd
}

// secret returns value when set, otherwise reads one line from in
func secret(cmd *cobra.Command, in *bufio.Reader, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}

	cmd.PrintErr(prompt + ": ")
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
