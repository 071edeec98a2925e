package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check every candidate date range once and email any availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runCheck(ctx, a)
		},
	}
}

func runCheck(ctx context.Context, a *app) error {
	found, err := a.checker.FindAvailableDates(ctx)
	if err != nil {
		a.logger.WithError(err).Error("Check failed")
		return err
	}
	a.logger.WithField("found", found).Info("Check finished")
	return nil
}
