package history

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// Measurement names.
const (
	MeasurementAlarm     = "catpoint_alarm"
	MeasurementDetection = "catpoint_detection"
	MeasurementSensors   = "catpoint_sensors"
)

// PointWriter accepts points for asynchronous delivery.
type PointWriter interface {
	WritePoint(point *write.Point)
}

// Observer writes one point per controller notification.
type Observer struct {
	writer PointWriter
	now    func() time.Time
}

// NewObserver creates an observer on top of a non-blocking write API and
// logs its write errors until ctx is done.
func NewObserver(ctx context.Context, writeAPI api.WriteAPI) *Observer {
	ctx = logger.WithName(ctx, "history")

	go func() {
		errs := writeAPI.Errors()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					return
				}

				logger.WarnKV(ctx, "InfluxDB write failed", "error", err)
			}
		}
	}()

	return &Observer{
		writer: writeAPI,
		now:    time.Now,
	}
}

// AlarmStatusChanged implements security.Observer.
func (o *Observer) AlarmStatusChanged(_ context.Context, status domain.AlarmStatus) {
	o.writer.WritePoint(AlarmPoint(status, o.now()))
}

// DetectionChanged implements security.Observer.
func (o *Observer) DetectionChanged(_ context.Context, catDetected bool) {
	o.writer.WritePoint(DetectionPoint(catDetected, o.now()))
}

// SensorsChanged implements security.Observer.
func (o *Observer) SensorsChanged(_ context.Context, sensors []*domain.Sensor) {
	o.writer.WritePoint(SensorsPoint(sensors, o.now()))
}

// AlarmPoint builds the point for an alarm status notification.
func AlarmPoint(status domain.AlarmStatus, ts time.Time) *write.Point {
	return influxdb2.NewPoint(
		MeasurementAlarm,
		map[string]string{"status": status.String()},
		map[string]any{"level": int64(status)},
		ts,
	)
}

// DetectionPoint builds the point for a classifier verdict.
func DetectionPoint(catDetected bool, ts time.Time) *write.Point {
	return influxdb2.NewPoint(
		MeasurementDetection,
		nil,
		map[string]any{"cat": catDetected},
		ts,
	)
}

// SensorsPoint builds the point summarizing the sensor set.
func SensorsPoint(sensors []*domain.Sensor, ts time.Time) *write.Point {
	var active int64

	for _, s := range sensors {
		if s.Active {
			active++
		}
	}

	return influxdb2.NewPoint(
		MeasurementSensors,
		nil,
		map[string]any{
			"active": active,
			"total":  int64(len(sensors)),
		},
		ts,
	)
}
