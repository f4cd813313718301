package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/service/client"
	"github.com/oshokin/catpoint/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the controller address from the configuration.
	serverAddress string
	// wait retries until the controller answers.
	wait bool

	// rootCmd represents the base command for controlling the alarm.
	rootCmd = &cobra.Command{
		Use:   "catpoint-ctl",
		Short: "Control a running CatPoint alarm controller.",
		Long: `Inspects and changes the state of a CatPoint alarm controller over gRPC.

Arm or disarm the system, override the alarm, manage sensors, submit camera
images and watch status changes. Every request carries the current user and
hostname so the controller can log who made the change.`,
		SilenceUsage: true,
	}
)

// Execute runs the catpoint-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run executes action against the controller with the persistent flags applied.
func run(cmd *cobra.Command, action client.Action) error {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Wait:          wait,
		Output:        cmd.OutOrStdout(),
	}, action)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&serverAddress, "server", "", "controller address, overrides the configuration")
	flags.BoolVarP(&wait, "wait", "w", false, "retry until the controller is reachable")

	rootCmd.AddCommand(
		newStatusCommand(),
		newArmCommand(),
		newDisarmCommand(),
		newAlarmCommand(),
		newSensorCommand(),
		newImageCommand(),
		newWatchCommand(),
	)
}
