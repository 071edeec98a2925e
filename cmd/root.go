package cmd

import (
	"fmt"
	"os"

	"room-availability/config"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	configFile      string
	credentialsFile string
}

// NewRootCmd builds the room-availability command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "room-availability",
		Short:         "Polls a hotel booking site for free rooms on candidate dates and emails when any are found",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", config.GetEnv("CONFIG_FILE", "config.yaml"), "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.credentialsFile, "credentials", config.GetEnv("CREDENTIALS_FILE", "credentials.yaml"), "optional YAML file merged over the config (secrets)")

	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newScheduleCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
