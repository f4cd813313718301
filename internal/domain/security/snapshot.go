package security

import "time"

// Snapshot is the durable record of the controller state.
type Snapshot struct {
	// UpdatedAt is when the snapshot was last changed.
	UpdatedAt time.Time
	// AlarmStatus is the current threat level.
	AlarmStatus AlarmStatus
	// ArmingStatus is the current monitoring mode.
	ArmingStatus ArmingStatus
	// Sensors is the registered sensor set.
	Sensors []*Sensor
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	return &Snapshot{
		UpdatedAt:    s.UpdatedAt,
		AlarmStatus:  s.AlarmStatus,
		ArmingStatus: s.ArmingStatus,
		Sensors:      CloneSensors(s.Sensors),
	}
}
