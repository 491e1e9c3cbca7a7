package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	authclient "github.com/goliatone/go-auth-client"
)

func newCanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "can <path>",
		Short: "Show where navigating to a path ends for the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			nav := authclient.NewNavigator(a.store, authclient.WithNavigatorLogger(a.logger.With("navigator")))
			result, err := nav.Navigate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !result.Redirected {
				cmd.Printf("allow %s\n", result.Path)
				return nil
			}
			cmd.Printf("deny %s -> %s\n", authclient.NormalizePath(args[0]), result.Path)
			return nil
		},
	}
}

func newMenuCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Show the sidebar entries of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			menu := authclient.MenuFor(a.store.Current())
			cmd.Printf("[%s] %s (%s)\n", menu.Initials, menu.Username, menu.RoleBadge)
			for _, item := range menu.Items {
				cmd.Printf("  %-18s %s\n", item.Label, item.Path)
			}
			return nil
		},
	}
}

func newFetchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <api-path>",
		Short: "GET a catalog endpoint with the session token",
		Long: `Fetch calls a catalog endpoint such as /api/characters with the
session token attached. A 401 reply ends the session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			client := &http.Client{
				Timeout: a.cfg.HTTPTimeout,
				Transport: &authclient.BearerTransport{
					Store:               a.store,
					ClearOnUnauthorized: true,
					Logger:              a.logger.With("transport"),
				},
			}

			url := a.cfg.BaseURL + "/" + strings.TrimLeft(args[0], "/")
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return err
			}

			cmd.Printf("%d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
			switch {
			case json.Valid(body):
				cmd.Println(print.MaybePrettyJSON(json.RawMessage(body)))
			case len(body) > 0:
				cmd.Println(string(body))
			}
			if resp.StatusCode >= http.StatusBadRequest {
				return fmt.Errorf("request failed with status %d", resp.StatusCode)
			}
			return nil
		},
	}
}
