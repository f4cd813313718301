package watcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

func newState(alarm domain.AlarmStatus, arming domain.ArmingStatus, catDetected *bool, sensors ...*domain.Sensor) *pb.State {
	return &pb.State{
		Snapshot: &domain.Snapshot{
			AlarmStatus:  alarm,
			ArmingStatus: arming,
			Sensors:      sensors,
		},
		CatDetected: catDetected,
	}
}

// TestChanges_Initial reports every value on the first poll.
func TestChanges_Initial(t *testing.T) {
	t.Parallel()

	lines := Changes(nil, newState(domain.NoAlarm, domain.Disarmed, nil))
	require.Equal(t, []string{
		"Alarm status: NO_ALARM",
		"Arming status: DISARMED",
		"Camera: unknown",
		"Active sensors: none",
	}, lines)
}

// TestChanges_OnlyDifferences reports nothing for an unchanged state and
// only the changed values otherwise.
func TestChanges_OnlyDifferences(t *testing.T) {
	t.Parallel()

	door := &domain.Sensor{ID: "1", Name: "Door", Active: false}
	previous := newState(domain.NoAlarm, domain.ArmedAway, nil, door)

	require.Empty(t, Changes(previous, previous))

	detected := true
	activeDoor := &domain.Sensor{ID: "1", Name: "Door", Active: true}
	current := newState(domain.PendingAlarm, domain.ArmedAway, &detected, activeDoor)

	require.Equal(t, []string{
		"Alarm status: PENDING_ALARM",
		"Camera: cat detected",
		"Active sensors: Door",
	}, Changes(previous, current))
}
