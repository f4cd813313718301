package security

import (
	"errors"
	"fmt"
	"strings"
)

// AlarmStatus is the three-level threat state of the system.
type AlarmStatus int

const (
	// NoAlarm means nothing requires attention.
	NoAlarm AlarmStatus = iota
	// PendingAlarm means a trigger was seen and awaits confirmation.
	PendingAlarm
	// Alarm means the alarm is fully triggered.
	Alarm
)

// ArmingStatus tells whether monitoring is off, or on in home or away mode.
// The zero value is Disarmed so a fresh store starts disarmed.
type ArmingStatus int

const (
	// Disarmed means monitoring is off.
	Disarmed ArmingStatus = iota
	// ArmedHome means monitoring is on and camera detection may trigger the alarm.
	ArmedHome
	// ArmedAway means monitoring is on for an empty house.
	ArmedAway
)

// SensorType classifies a sensor. It is set at creation and never changes.
type SensorType int

const (
	// Door is a door contact sensor.
	Door SensorType = iota
	// Window is a window contact sensor.
	Window
	// Motion is a motion detector.
	Motion
)

var (
	// ErrUnknownStatus is returned when a status name cannot be parsed.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrUnknownSensorType is returned when a sensor type name cannot be parsed.
	ErrUnknownSensorType = errors.New("unknown sensor type")
)

//nolint:gochecknoglobals // Lookup tables for enum names.
var (
	alarmStatusNames = map[AlarmStatus]string{
		NoAlarm:      "NO_ALARM",
		PendingAlarm: "PENDING_ALARM",
		Alarm:        "ALARM",
	}
	armingStatusNames = map[ArmingStatus]string{
		Disarmed:  "DISARMED",
		ArmedHome: "ARMED_HOME",
		ArmedAway: "ARMED_AWAY",
	}
	sensorTypeNames = map[SensorType]string{
		Door:   "DOOR",
		Window: "WINDOW",
		Motion: "MOTION",
	}
)

// String returns the canonical upper-case name of the alarm status.
func (s AlarmStatus) String() string {
	if name, ok := alarmStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("AlarmStatus(%d)", int(s))
}

// String returns the canonical upper-case name of the arming status.
func (s ArmingStatus) String() string {
	if name, ok := armingStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("ArmingStatus(%d)", int(s))
}

// IsArmed reports whether monitoring is active in any mode.
func (s ArmingStatus) IsArmed() bool {
	return s == ArmedHome || s == ArmedAway
}

// String returns the canonical upper-case name of the sensor type.
func (t SensorType) String() string {
	if name, ok := sensorTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("SensorType(%d)", int(t))
}

// AlarmStatuses lists every alarm status in ascending threat order.
func AlarmStatuses() []AlarmStatus {
	return []AlarmStatus{NoAlarm, PendingAlarm, Alarm}
}

// ParseAlarmStatus converts a name like "pending_alarm" or "PENDING-ALARM" to an AlarmStatus.
func ParseAlarmStatus(s string) (AlarmStatus, error) {
	return parseEnum(s, alarmStatusNames, ErrUnknownStatus)
}

// ParseArmingStatus converts a name like "armed_home" to an ArmingStatus.
// The short forms "home" and "away" are accepted as well.
func ParseArmingStatus(s string) (ArmingStatus, error) {
	switch normalizeName(s) {
	case "HOME":
		return ArmedHome, nil
	case "AWAY":
		return ArmedAway, nil
	}

	return parseEnum(s, armingStatusNames, ErrUnknownStatus)
}

// ParseSensorType converts a name like "door" to a SensorType.
func ParseSensorType(s string) (SensorType, error) {
	return parseEnum(s, sensorTypeNames, ErrUnknownSensorType)
}

// parseEnum looks up the normalized name in the provided table.
func parseEnum[T comparable](s string, names map[T]string, errUnknown error) (T, error) {
	normalized := normalizeName(s)

	for value, name := range names {
		if name == normalized {
			return value, nil
		}
	}

	var zero T

	return zero, fmt.Errorf("%w: %q", errUnknown, s)
}

// normalizeName upper-cases the name and unifies separators to underscores.
func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
}
