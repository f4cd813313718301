package cmd

import (
	"github.com/spf13/cobra"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/service/client"
	"github.com/oshokin/catpoint/internal/service/watcher"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show alarm and arming status, camera verdict and sensors.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.ShowStatus())
		},
	}
}

func newArmCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "arm home|away",
		Short:     "Arm the system. Every sensor is reset to inactive.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"home", "away"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseArmingStatus(args[0])
			if err != nil {
				return err
			}

			return run(cmd, client.SetArming(status))
		},
	}
}

func newDisarmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disarm",
		Short: "Disarm the system and clear the alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.SetArming(domain.Disarmed))
		},
	}
}

func newAlarmCommand() *cobra.Command {
	alarmCmd := &cobra.Command{
		Use:   "alarm",
		Short: "Override the alarm status.",
	}

	alarmCmd.AddCommand(
		&cobra.Command{
			Use:       "set no_alarm|pending_alarm|alarm",
			Short:     "Force the alarm status.",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"no_alarm", "pending_alarm", "alarm"},
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := domain.ParseAlarmStatus(args[0])
				if err != nil {
					return err
				}

				return run(cmd, client.SetAlarm(status))
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Clear the alarm without changing the arming status.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, client.SetAlarm(domain.NoAlarm))
			},
		},
	)

	return alarmCmd
}

func newSensorCommand() *cobra.Command {
	sensorCmd := &cobra.Command{
		Use:   "sensor",
		Short: "Manage sensors. A sensor is referenced by id or unique name.",
	}

	sensorCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered sensors.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, client.ListSensors())
			},
		},
		&cobra.Command{
			Use:       "add NAME door|window|motion",
			Short:     "Register a sensor.",
			Args:      cobra.ExactArgs(2), //nolint:mnd // Name and type.
			ValidArgs: []string{"door", "window", "motion"},
			RunE: func(cmd *cobra.Command, args []string) error {
				sensorType, err := domain.ParseSensorType(args[1])
				if err != nil {
					return err
				}

				return run(cmd, client.AddSensor(args[0], sensorType))
			},
		},
		&cobra.Command{
			Use:   "remove SENSOR",
			Short: "Unregister a sensor.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, client.RemoveSensor(args[0]))
			},
		},
		&cobra.Command{
			Use:   "activate SENSOR",
			Short: "Mark a sensor as triggered.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, client.SetActivation(args[0], true))
			},
		},
		&cobra.Command{
			Use:   "deactivate SENSOR",
			Short: "Mark a sensor as idle.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, client.SetActivation(args[0], false))
			},
		},
		&cobra.Command{
			Use:   "reevaluate SENSOR",
			Short: "Reconcile the alarm status with the sensor's stored state.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, client.Reevaluate(args[0]))
			},
		},
	)

	return sensorCmd
}

func newImageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "image FILE",
		Short: "Submit a PNG or JPEG camera image for classification.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, client.SendImage(args[0]))
		},
	}
}

func newWatchCommand() *cobra.Command {
	var opts watcher.Options

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the controller and print status changes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, watcher.Action(opts))
		},
	}

	watchCmd.Flags().DurationVarP(&opts.Interval, "interval", "i", watcher.DefaultInterval, "polling interval")
	watchCmd.Flags().BoolVar(&opts.ExitOnAlarm, "exit-on-alarm", false, "exit with an error once the alarm fires")

	return watchCmd
}
