package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

var (
	errTestLoad = errors.New("test load error")
	errTestSave = errors.New("test save error")
)

// memoryRepository is a minimal in-memory Repository implementation for tests.
type memoryRepository struct {
	// snapshot is returned from Load operations.
	snapshot *domain.Snapshot
	// loadErr is returned from Load operations.
	loadErr error
	// saveErr is returned from Save operations.
	saveErr error
	// saved stores the last snapshot passed to Save.
	saved *domain.Snapshot
	// saves counts Save calls.
	saves int
}

// Load returns the configured snapshot and error.
func (m *memoryRepository) Load(context.Context) (*domain.Snapshot, error) {
	return m.snapshot, m.loadErr
}

// Save remembers the snapshot and returns the configured error.
func (m *memoryRepository) Save(_ context.Context, s *domain.Snapshot) error {
	m.saves++
	m.saved = s

	return m.saveErr
}

// TestOpen_LoadsStateOrDefaults asserts Open behavior on existing, missing, and error states.
func TestOpen_LoadsStateOrDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, err := Open(ctx, &memoryRepository{snapshot: testSnapshot()})
	require.NoError(t, err)
	require.Equal(t, domain.PendingAlarm, s.AlarmStatus())
	require.Equal(t, domain.ArmedHome, s.ArmingStatus())
	require.Len(t, s.Sensors(), 2)

	s, err = Open(ctx, &memoryRepository{loadErr: ErrNotFound})
	require.NoError(t, err)
	require.Equal(t, domain.Disarmed, s.ArmingStatus())
	require.Empty(t, s.Sensors())

	s, err = Open(ctx, &memoryRepository{loadErr: errTestLoad})
	require.ErrorIs(t, err, errTestLoad)
	require.Nil(t, s)
}

// TestStore_WriteThrough verifies every write saves a full snapshot.
func TestStore_WriteThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := new(memoryRepository)

	s, err := Open(ctx, repo)
	require.NoError(t, err)

	sensor := domain.NewSensor("Garage", domain.Door)

	require.NoError(t, s.SetArmingStatus(ctx, domain.ArmedAway))
	require.NoError(t, s.SetAlarmStatus(ctx, domain.PendingAlarm))
	require.NoError(t, s.AddSensor(ctx, sensor))

	sensor.Active = true
	require.NoError(t, s.UpdateSensor(ctx, sensor))

	require.Equal(t, 4, repo.saves)
	require.Equal(t, domain.ArmedAway, repo.saved.ArmingStatus)
	require.Equal(t, domain.PendingAlarm, repo.saved.AlarmStatus)
	require.Len(t, repo.saved.Sensors, 1)
	require.True(t, repo.saved.Sensors[0].Active)
	require.False(t, repo.saved.UpdatedAt.IsZero())

	require.NoError(t, s.RemoveSensor(ctx, sensor.ID))
	require.Empty(t, repo.saved.Sensors)

	err = s.RemoveSensor(ctx, sensor.ID)
	require.ErrorIs(t, err, domain.ErrSensorNotFound)
}

// TestStore_ReturnsCopies ensures callers cannot mutate stored sensors.
func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	sensor := domain.NewSensor("Nursery", domain.Window)

	require.NoError(t, s.AddSensor(ctx, sensor))

	sensor.Active = true
	listed := s.Sensors()
	listed[0].Active = true

	got, ok := s.Sensor(sensor.ID)
	require.True(t, ok)
	require.False(t, got.Active)

	_, ok = s.Sensor("missing")
	require.False(t, ok)
}

// TestStore_SaveError surfaces the error but keeps the change in memory.
func TestStore_SaveError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &memoryRepository{saveErr: errTestSave}

	s, err := Open(ctx, repo)
	require.NoError(t, err)

	err = s.SetAlarmStatus(ctx, domain.Alarm)
	require.ErrorIs(t, err, errTestSave)
	require.Equal(t, domain.Alarm, s.AlarmStatus())
	require.Equal(t, domain.Alarm, s.Snapshot().AlarmStatus)
}
