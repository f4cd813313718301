package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewSensor verifies that sensors with the same name and type stay distinct.
func TestNewSensor(t *testing.T) {
	t.Parallel()

	a := NewSensor(" Front door ", Door)
	b := NewSensor("Front door", Door)

	require.Equal(t, "Front door", a.Name)
	require.False(t, a.Active)
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
}

// TestSensorClone verifies that Clone returns a copy and handles nil safely.
func TestSensorClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Sensor)(nil).Clone())

	a := NewSensor("Kitchen", Window)
	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)

	b.Active = true
	require.False(t, a.Active)
}

// TestSortSensors orders by name then by identifier.
func TestSortSensors(t *testing.T) {
	t.Parallel()

	sensors := []*Sensor{
		{ID: "b", Name: "Hall"},
		{ID: "c", Name: "Attic"},
		{ID: "a", Name: "Hall"},
	}

	SortSensors(sensors)

	require.Equal(t, "c", sensors[0].ID)
	require.Equal(t, "a", sensors[1].ID)
	require.Equal(t, "b", sensors[2].ID)
	require.False(t, AnyActive(sensors))

	sensors[2].Active = true
	require.True(t, AnyActive(sensors))
}

// TestSnapshotClone ensures sensors are deep-copied.
func TestSnapshotClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Snapshot)(nil).Clone())

	s := &Snapshot{
		AlarmStatus:  PendingAlarm,
		ArmingStatus: ArmedAway,
		Sensors:      []*Sensor{NewSensor("Garage", Door)},
	}

	c := s.Clone()
	require.Equal(t, s, c)
	require.NotSame(t, s.Sensors[0], c.Sensors[0])
}

// TestActorClone verifies that Clone returns a deep copy and handles nil safely.
func TestActorClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Actor)(nil).Clone())
	require.Equal(t, "<unknown>", (*Actor)(nil).String())

	a := &Actor{
		Hostname: "gatehouse",
		Username: "o.shokin",
	}

	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
	require.Equal(t, "o.shokin@gatehouse", b.String())
}

// TestParseActor covers the metadata encoding of an actor.
func TestParseActor(t *testing.T) {
	t.Parallel()

	require.Nil(t, ParseActor(""))
	require.Equal(t, &Actor{Hostname: "gatehouse", Username: "o.shokin"}, ParseActor("o.shokin@gatehouse"))
	require.Equal(t, &Actor{Hostname: "host", Username: "a@b"}, ParseActor("a@b@host"))
	require.Equal(t, &Actor{Username: "root"}, ParseActor("root"))
}
