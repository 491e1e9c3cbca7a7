package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/authtest"
)

// devServerConfig holds configuration for the dev-server command.
type devServerConfig struct {
	addr string
	seed bool
}

func newDevServerCmd() *cobra.Command {
	cfg := &devServerConfig{}

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run an in-memory auth service for local development",
		Long: `Run an in-memory implementation of the catalog auth endpoints.
With --seed it starts with admin, employee and user accounts, all using the
password "pa$$1".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDevServer(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().BoolVar(&cfg.seed, "seed", true, "create demo accounts")

	return cmd
}

func runDevServer(cmd *cobra.Command, cfg *devServerConfig) error {
	srv := authtest.New()
	if cfg.seed {
		srv.AddUser("admin", "admin@example.com", "pa$$1", authclient.RoleAdmin)
		srv.AddUser("employee", "employee@example.com", "pa$$1", authclient.RoleEmployee)
		srv.AddUser("user", "user@example.com", "pa$$1", authclient.RoleUser)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.App().Listen(cfg.addr)
	}()

	cmd.Printf("auth service listening on http://%s\n", cfg.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return srv.App().ShutdownWithContext(context.Background())
	}
}
