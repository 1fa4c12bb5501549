// Package cli wires the botbridge commands together.
package cli

import (
	"github.com/soyeahso/botbridge/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// built at init time
	log *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "botbridge",
		Short: "botbridge — chat channel bridge for Bot-Framework-style connectors",
		Long:  "botbridge terminates a channel connector's webhook, authorizes and translates activities into bot events, and delivers bot responses back through the connector.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "botbridge.yaml", "config file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
