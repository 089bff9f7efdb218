package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/launchpad/internal/dashboard"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		noSchedule bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Launchpad API server",
		Long: `Starts the JSON API and, when schedule.reanalyze_cron is set, the
background job that re-analyzes every active feedback source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port, noSchedule)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "do not run scheduled re-analysis")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int, noSchedule bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := openApp(ctx, configPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Server.Port
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if expr := a.cfg.Schedule.ReanalyzeCron; expr != "" && !noSchedule {
		sched, err := scheduler.New(scheduler.Opts{
			Expr:    expr,
			Sources: a.store.Sources,
			Runner:  a.pipeline,
		})
		if err != nil {
			return err
		}
		sched.Start(ctx)
		logx.Info().Str("cron", expr).Time("next", sched.Next(time.Now())).Msg("scheduler: re-analysis enabled")
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		Pipeline: a.pipeline,
		Auth:     a.auth,
		MediaDir: a.blobs.Dir(),
		Port:     port,
		Out:      cmd.OutOrStdout(),
	})
}
