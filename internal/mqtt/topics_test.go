package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopics(t *testing.T) {
	t.Parallel()

	topics := NewTopics("/home/catpoint/")

	require.Equal(t, "home/catpoint/sensors/+/state", topics.SensorStateFilter())
	require.Equal(t, "home/catpoint/sensors/abc/state", topics.SensorState("abc"))
	require.Equal(t, "home/catpoint/camera", topics.Camera())
	require.Equal(t, "home/catpoint/events/alarm", topics.AlarmEvents())
	require.Equal(t, "home/catpoint/events/detection", topics.DetectionEvents())
	require.Equal(t, "home/catpoint/events/sensors", topics.SensorEvents())

	require.Equal(t, "camera", NewTopics("").Camera())
}

func TestTopics_ParseSensorState(t *testing.T) {
	t.Parallel()

	topics := NewTopics("catpoint")

	id, err := topics.ParseSensorState("catpoint/sensors/door-1/state")
	require.NoError(t, err)
	require.Equal(t, "door-1", id)

	for _, topic := range []string{
		"catpoint/sensors//state",
		"catpoint/sensors/a/b/state",
		"catpoint/sensors/a",
		"other/sensors/a/state",
		"catpoint/camera",
	} {
		_, err = topics.ParseSensorState(topic)
		require.ErrorIs(t, err, ErrUnexpectedTopic, topic)
	}
}

func TestParseActivation(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"true", "1", "ON", " open\n"} {
		active, err := ParseActivation([]byte(payload))
		require.NoError(t, err, payload)
		require.True(t, active, payload)
	}

	for _, payload := range []string{"false", "0", "off", "Closed"} {
		active, err := ParseActivation([]byte(payload))
		require.NoError(t, err, payload)
		require.False(t, active, payload)
	}

	_, err := ParseActivation([]byte("maybe"))
	require.ErrorIs(t, err, ErrInvalidPayload)
}
