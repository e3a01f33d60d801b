package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/asilo/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking ASILO_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("ASILO_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the asilo CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asilo",
		Short: "Asilo: residential care dashboard client",
		Long:  "asilo queries the Asilo dashboard server, or the patient directory directly.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Asilo server URL (or ASILO_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newPatientsCmd(),
		newHealthCmd(),
	)

	return root
}
