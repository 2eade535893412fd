package cli

import (
	"log/slog"
	"os"

	"github.com/me/agentpool/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default daemon URL, checking AGENTPOOL_SERVER
// env var first.
func defaultServer() string {
	if s := os.Getenv("AGENTPOOL_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the agentpool CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agentpool",
		Short: "agentpool — inspect and control the agent autoscaler",
		Long:  "agentpool queries the autoscaler daemon: current world view, recent ticks and commands, and the pause switch.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(flagLogLevel, flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Daemon URL (or AGENTPOOL_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newStatusCmd(),
		newTicksCmd(),
		newCommandsCmd(),
		newPauseCmd(),
		newResumeCmd(),
	)

	return root
}
