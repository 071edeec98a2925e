package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"room-availability/scheduler"
	"room-availability/server"

	"github.com/spf13/cobra"
)

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Check at random intervals until the deadline, alerting by email if a check fails",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSchedule(ctx, a)
		},
	}
}

func runSchedule(ctx context.Context, a *app) error {
	sched, err := scheduler.New(
		scheduler.OptionsFromConfig(a.cfg.MainSchedule),
		a.checker,
		a.mailer,
		a.logger.WithField("component", "scheduler"),
	)
	if err != nil {
		return err
	}

	if addr := a.cfg.Server.MetricsAddr; addr != "" {
		srv := server.NewServer(addr, a.registry, readiness(sched), a.cfg.Server.MetricsAuth, a.logger.WithField("component", "server"))
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				a.logger.WithError(err).Error("Failed to stop server")
			}
		}()
	}

	outcome, err := sched.Run(ctx)
	a.logger.WithField("outcome", outcome.String()).Info("Scheduler stopped")
	if outcome == scheduler.OutcomeFailed {
		return err
	}
	return nil
}

// readiness passes once a run has completed and until the loop terminates.
func readiness(sched *scheduler.Scheduler) func() bool {
	return func() bool {
		return sched.Completed() > 0 && sched.State() != scheduler.StateTerminated
	}
}
