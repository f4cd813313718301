package security

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Sensor is a door, window or motion sensor registered in the system.
// ID is the identity used for equality and storage; Name and Type are descriptive.
type Sensor struct {
	// ID is the opaque unique identifier assigned at creation.
	ID string
	// Name is the human readable label, not necessarily unique.
	Name string
	// Type is the sensor classification.
	Type SensorType
	// Active tells whether the sensor is currently triggered.
	Active bool
}

// NewSensor creates an inactive sensor with a freshly generated identifier.
func NewSensor(name string, sensorType SensorType) *Sensor {
	return &Sensor{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(name),
		Type: sensorType,
	}
}

// Clone returns a copy of the sensor.
func (s *Sensor) Clone() *Sensor {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}

// CloneSensors copies every sensor of the list.
func CloneSensors(sensors []*Sensor) []*Sensor {
	result := make([]*Sensor, 0, len(sensors))
	for _, s := range sensors {
		result = append(result, s.Clone())
	}

	return result
}

// SortSensors orders sensors by name, then by identifier.
func SortSensors(sensors []*Sensor) {
	slices.SortFunc(sensors, func(a, b *Sensor) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
}

// AnyActive reports whether at least one sensor is active.
func AnyActive(sensors []*Sensor) bool {
	return slices.ContainsFunc(sensors, func(s *Sensor) bool {
		return s.Active
	})
}

// ErrSensorNotFound is returned when no sensor has the requested identifier.
var ErrSensorNotFound = errors.New("sensor not found")
