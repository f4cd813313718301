package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/service/server"
	"github.com/oshokin/catpoint/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile overrides the state location from the configuration.
	stateFile string
	// force skips the single instance check.
	force bool

	// rootCmd represents the base command for running the controller.
	rootCmd = &cobra.Command{
		Use:   "catpoint-server [listen-address]",
		Short: "Run the CatPoint alarm controller.",
		Long: `Starts the alarm controller that owns the alarm state machine.

The controller serves gRPC on the configured address, and optionally a REST API
with Prometheus metrics, MQTT sensor ingress with event publishing, and an
InfluxDB history sink. Only the port from server_addr is used for listening.
Listen address can be provided as argument to override config (e.g., :9090).
Statuses and sensors are persisted through the configured state driver.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StateFile:     stateFile,
				Force:         force,
			})
		},
	}
)

// Execute runs the catpoint-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "override the state file or database path")
	rootCmd.Flags().BoolVar(&force, "force", false, "start even if another server is running")
}
