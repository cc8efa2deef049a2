package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/chargeyard/internal/auth"
	"github.com/zulandar/chargeyard/internal/dashboard"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the web dashboard",
		Long:  "Serves the Chargeyard JSON API, printable Gantt pages, health checks and Prometheus metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	return cmd
}

func runDashboard(cmd *cobra.Command, configPath string, port int) error {
	return withApp(configPath, func(a *app) error {
		if port == 0 {
			port = a.cfg.Dashboard.Port
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			select {
			case sig := <-sigCh:
				fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
				cancel()
			case <-ctx.Done():
			}
		}()

		opts := dashboard.StartOpts{
			DB:             a.db,
			Auth:           a.auth,
			Logger:         a.log,
			Port:           port,
			Out:            cmd.OutOrStdout(),
			Gantt:          a.cfg.Gantt,
			SessionTimeout: a.cfg.Auth.SessionTimeout,
			Notify:         a.notify,
		}
		// Redis-held revocations expire on their own.
		if a.cfg.Auth.RedisAddr == "" {
			opts.Purge = auth.NewDBRevoker(a.db)
			opts.PurgeSchedule = a.cfg.Auth.PurgeSchedule
		}
		return dashboard.Start(ctx, opts)
	})
}
