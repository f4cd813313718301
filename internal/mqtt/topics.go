package mqtt

import (
	"errors"
	"fmt"
	"strings"
)

// Topic segments.
const (
	segmentSensors = "sensors"
	segmentState   = "state"
	segmentCamera  = "camera"
	segmentEvents  = "events"
)

var (
	// ErrUnexpectedTopic is returned for topics outside the sensor namespace.
	ErrUnexpectedTopic = errors.New("unexpected topic")

	// ErrInvalidPayload is returned when a sensor state cannot be parsed.
	ErrInvalidPayload = errors.New("invalid sensor payload")

	// ErrTimeout is returned when the broker does not confirm an operation in time.
	ErrTimeout = errors.New("mqtt operation timed out")
)

// Topics builds and parses topic names under a common prefix.
type Topics struct {
	prefix string
}

// NewTopics creates topic helpers; surrounding slashes of prefix are dropped.
func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.Trim(prefix, "/")}
}

// SensorStateFilter matches the state topic of every sensor.
func (t Topics) SensorStateFilter() string {
	return t.join(segmentSensors, "+", segmentState)
}

// SensorState is the state topic of one sensor.
func (t Topics) SensorState(id string) string {
	return t.join(segmentSensors, id, segmentState)
}

// Camera receives raw camera frames.
func (t Topics) Camera() string {
	return t.join(segmentCamera)
}

// AlarmEvents carries alarm status changes.
func (t Topics) AlarmEvents() string {
	return t.join(segmentEvents, "alarm")
}

// DetectionEvents carries classifier verdicts.
func (t Topics) DetectionEvents() string {
	return t.join(segmentEvents, "detection")
}

// SensorEvents carries the sensor set.
func (t Topics) SensorEvents() string {
	return t.join(segmentEvents, segmentSensors)
}

// ParseSensorState extracts the sensor identifier from a state topic.
func (t Topics) ParseSensorState(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, t.join(segmentSensors)+"/")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnexpectedTopic, topic)
	}

	id, ok := strings.CutSuffix(rest, "/"+segmentState)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnexpectedTopic, topic)
	}

	return id, nil
}

func (t Topics) join(segments ...string) string {
	if t.prefix == "" {
		return strings.Join(segments, "/")
	}

	return t.prefix + "/" + strings.Join(segments, "/")
}

// ParseActivation converts a sensor payload into the active flag.
func ParseActivation(payload []byte) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "true", "1", "on", "open":
		return true, nil
	case "false", "0", "off", "closed":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}
}
