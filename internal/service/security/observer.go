package security

import (
	"context"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// Observer receives controller events synchronously on the caller's goroutine.
// Implementations are called while the controller lock is held: they must not
// call back into the controller and should hand slow work off. Observers are
// kept in a set, so they must be comparable (pointer receivers are).
type Observer interface {
	// AlarmStatusChanged is called every time the alarm status is set.
	AlarmStatusChanged(ctx context.Context, status domain.AlarmStatus)
	// DetectionChanged is called after every processed image.
	DetectionChanged(ctx context.Context, catDetected bool)
	// SensorsChanged is called when sensors are added, removed or change state.
	SensorsChanged(ctx context.Context, sensors []*domain.Sensor)
}

// LogObserver writes controller events to the structured log.
type LogObserver struct{}

// NewLogObserver creates an observer that logs every event.
func NewLogObserver() *LogObserver {
	return new(LogObserver)
}

// AlarmStatusChanged logs the new alarm status.
func (*LogObserver) AlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	if status == domain.Alarm {
		logger.WarnKV(ctx, "ALARM triggered", "alarm_status", status.String())

		return
	}

	logger.InfoKV(ctx, "Alarm status set", "alarm_status", status.String())
}

// DetectionChanged logs the classifier verdict.
func (*LogObserver) DetectionChanged(ctx context.Context, catDetected bool) {
	logger.InfoKV(ctx, "Camera image processed", "cat_detected", catDetected)
}

// SensorsChanged logs a summary of the sensor set.
func (*LogObserver) SensorsChanged(ctx context.Context, sensors []*domain.Sensor) {
	active := 0

	for _, s := range sensors {
		if s.Active {
			active++
		}
	}

	logger.DebugKV(ctx, "Sensors changed", "total", len(sensors), "active", active)
}
