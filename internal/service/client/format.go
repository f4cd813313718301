package client

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// WriteState prints statuses, the detection verdict and the sensors.
func WriteState(out io.Writer, state *pb.State) error {
	detection := "unknown"
	if state.CatDetected != nil {
		detection = "no cat"
		if *state.CatDetected {
			detection = "cat detected"
		}
	}

	updatedAt := "<never>"
	if !state.Snapshot.UpdatedAt.IsZero() {
		updatedAt = state.Snapshot.UpdatedAt.Local().Format(time.RFC3339)
	}

	_, err := fmt.Fprintf(out,
		"Alarm:     %s\nArming:    %s\nCamera:    %s\nUpdated:   %s\n\n",
		state.Snapshot.AlarmStatus,
		state.Snapshot.ArmingStatus,
		detection,
		updatedAt,
	)
	if err != nil {
		return err
	}

	return WriteSensors(out, state.Snapshot.Sensors)
}

// WriteSensors prints sensors as an aligned table.
func WriteSensors(out io.Writer, sensors []*domain.Sensor) error {
	if len(sensors) == 0 {
		_, err := fmt.Fprintln(out, "No sensors registered")

		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATE")

	for _, s := range sensors {
		sensorState := "inactive"
		if s.Active {
			sensorState = "active"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Type, sensorState)
	}

	return w.Flush()
}
