package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/service/common"
)

var (
	// ErrSensorNotFound is returned when a sensor reference matches nothing.
	ErrSensorNotFound = errors.New("no sensor matches")
	// ErrAmbiguousSensor is returned when a name matches several sensors.
	ErrAmbiguousSensor = errors.New("sensor name is ambiguous, use the id")
)

// ShowStatus prints the controller state.
func ShowStatus() Action {
	return func(ctx context.Context, client *common.Client, out io.Writer) error {
		state, err := client.State(ctx)
		if err != nil {
			return err
		}

		return WriteState(out, state)
	}
}

// SetArming changes the arming status and prints the resulting state.
func SetArming(armingStatus domain.ArmingStatus) Action {
	return func(ctx context.Context, client *common.Client, out io.Writer) error {
		state, err := client.SetArmingStatus(ctx, armingStatus)
		if err != nil {
			return err
		}

		return WriteState(out, state)
	}
}

// SetAlarm overrides the alarm status and prints the resulting state.
func SetAlarm(alarmStatus domain.AlarmStatus) Action {
	return func(ctx context.Context, client *common.Client, out io.Writer) error {
		state, err := client.SetAlarmStatus(ctx, alarmStatus)
		if err != nil {
			return err
		}

		return WriteState(out, state)
	}
}

// ListSensors prints every registered sensor.
func ListSensors() Action {
	return func(ctx context.Context, client *common.Client, out io.Writer) error {
		sensors, err := client.Sensors(ctx)
		if err != nil {
			return err
		}

		return WriteSensors(out, sensors)
	}
}

// AddSensor registers a sensor and prints it with its identifier.
func AddSensor(name string, sensorType domain.SensorType) Action {
	return func(ctx context.Context, client *common.Client, out io.Writer) error {
		sensor, err := client.AddSensor(ctx, name, sensorType)
		if err != nil {
			return err
		}

		return WriteSensors(out, []*domain.Sensor{sensor})
	}
}

// RemoveSensor unregisters the sensor matching ref.
func RemoveSensor(ref string) Action {
	return func(ctx context.Context, client *common.Client, out io.Writer) error {
		sensor, err := resolveSensor(ctx, client, ref)
		if err != nil {
			return err
		}

		if err = client.RemoveSensor(ctx, sensor.ID); err != nil {
			return err
		}

		_, err = fmt.Fprintf(out, "Removed sensor %q (%s)\n", sensor.Name, sensor.ID)

		return err
	}
}

// SetActivation activates or deactivates the sensor matching ref.
func SetActivation(ref string, active bool) Action {
	return func(ctx context.Context, client *common.Client, out io.Writer) error {
		sensor, err := resolveSensor(ctx, client, ref)
		if err != nil {
			return err
		}

		if _, err = client.SetSensorActivation(ctx, sensor.ID, active); err != nil {
			return err
		}

		return showState(ctx, client, out)
	}
}

// Reevaluate reconciles the alarm status with the sensor matching ref.
func Reevaluate(ref string) Action {
	return func(ctx context.Context, client *common.Client, out io.Writer) error {
		sensor, err := resolveSensor(ctx, client, ref)
		if err != nil {
			return err
		}

		state, err := client.ReevaluateSensor(ctx, sensor.ID)
		if err != nil {
			return err
		}

		return WriteState(out, state)
	}
}

// SendImage submits a PNG or JPEG file to the classifier.
func SendImage(path string) Action {
	return func(ctx context.Context, client *common.Client, out io.Writer) error {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}

		state, err := client.ProcessImage(ctx, data)
		if err != nil {
			return err
		}

		return WriteState(out, state)
	}
}

func showState(ctx context.Context, client *common.Client, out io.Writer) error {
	return ShowStatus()(ctx, client, out)
}

// resolveSensor finds a sensor by identifier or by case-insensitive name.
func resolveSensor(ctx context.Context, client *common.Client, ref string) (*domain.Sensor, error) {
	sensors, err := client.Sensors(ctx)
	if err != nil {
		return nil, err
	}

	return matchSensor(sensors, ref)
}

// matchSensor prefers an exact identifier match and falls back to a unique name.
func matchSensor(sensors []*domain.Sensor, ref string) (*domain.Sensor, error) {
	var byName []*domain.Sensor

	for _, s := range sensors {
		if s.ID == ref {
			return s, nil
		}

		if strings.EqualFold(s.Name, strings.TrimSpace(ref)) {
			byName = append(byName, s)
		}
	}

	switch len(byName) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrSensorNotFound, ref)
	case 1:
		return byName[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousSensor, ref)
	}
}
