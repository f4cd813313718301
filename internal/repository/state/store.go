package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Store keeps the controller state in memory and writes every change
// through to the repository as a full snapshot.
// Reads never touch the repository.
type Store struct {
	// repo receives a snapshot after each change; nil keeps state in memory only.
	repo Repository
	// now returns the current time for UpdatedAt.
	now func() time.Time
	// sensors holds registered sensors keyed by identifier.
	sensors map[string]*domain.Sensor
	// updatedAt is when the state last changed.
	updatedAt time.Time
	// alarmStatus is the current threat level.
	alarmStatus domain.AlarmStatus
	// armingStatus is the current monitoring mode.
	armingStatus domain.ArmingStatus
	// mu protects every field above.
	mu sync.RWMutex
}

// NewMemoryStore creates a disarmed store without persistence.
func NewMemoryStore() *Store {
	return &Store{
		now:     time.Now,
		sensors: make(map[string]*domain.Sensor),
	}
}

// Open creates a store backed by repo and loads the persisted snapshot.
// A missing snapshot yields the default disarmed state.
func Open(ctx context.Context, repo Repository) (*Store, error) {
	s := NewMemoryStore()
	s.repo = repo

	if repo == nil {
		return s, nil
	}

	snapshot, err := repo.Load(ctx)
	switch {
	case err == nil:
		s.restore(snapshot)
	case errors.Is(err, ErrNotFound):
		// Keep default state.
	default:
		return nil, fmt.Errorf("load state: %w", err)
	}

	return s, nil
}

// AlarmStatus returns the current alarm status.
func (s *Store) AlarmStatus() domain.AlarmStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.alarmStatus
}

// SetAlarmStatus stores the alarm status.
func (s *Store) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	return s.update(ctx, func() {
		s.alarmStatus = status
	})
}

// ArmingStatus returns the current arming status.
func (s *Store) ArmingStatus() domain.ArmingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.armingStatus
}

// SetArmingStatus stores the arming status.
func (s *Store) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	return s.update(ctx, func() {
		s.armingStatus = status
	})
}

// Sensors returns copies of every registered sensor ordered by name.
func (s *Store) Sensors() []*domain.Sensor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sensorList()
}

// Sensor returns a copy of the sensor with the given identifier.
func (s *Store) Sensor(id string) (*domain.Sensor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sensor, ok := s.sensors[id]

	return sensor.Clone(), ok
}

// AddSensor registers a sensor, replacing any sensor with the same identifier.
func (s *Store) AddSensor(ctx context.Context, sensor *domain.Sensor) error {
	return s.UpdateSensor(ctx, sensor)
}

// RemoveSensor unregisters the sensor with the given identifier.
func (s *Store) RemoveSensor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sensors[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSensorNotFound, id)
	}

	delete(s.sensors, id)

	return s.persist(ctx)
}

// UpdateSensor upserts the sensor by identifier.
func (s *Store) UpdateSensor(ctx context.Context, sensor *domain.Sensor) error {
	stored := sensor.Clone()

	return s.update(ctx, func() {
		s.sensors[stored.ID] = stored
	})
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot()
}

// update applies change under the lock and persists the result.
func (s *Store) update(ctx context.Context, change func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	change()

	return s.persist(ctx)
}

// persist stamps the state and saves it. The in-memory change is kept even
// when saving fails; the next successful save writes the full state again.
// Callers must hold the write lock.
func (s *Store) persist(ctx context.Context) error {
	s.updatedAt = s.now()

	if s.repo == nil {
		return nil
	}

	if err := s.repo.Save(ctx, s.snapshot()); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}

	return nil
}

// restore replaces the in-memory state with a loaded snapshot.
func (s *Store) restore(snapshot *domain.Snapshot) {
	s.alarmStatus = snapshot.AlarmStatus
	s.armingStatus = snapshot.ArmingStatus
	s.updatedAt = snapshot.UpdatedAt

	for _, sensor := range snapshot.Sensors {
		s.sensors[sensor.ID] = sensor.Clone()
	}
}

// snapshot builds a copy of the state. Callers must hold the lock.
func (s *Store) snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		UpdatedAt:    s.updatedAt,
		AlarmStatus:  s.alarmStatus,
		ArmingStatus: s.armingStatus,
		Sensors:      s.sensorList(),
	}
}

// sensorList returns sorted copies of the sensors. Callers must hold the lock.
func (s *Store) sensorList() []*domain.Sensor {
	sensors := make([]*domain.Sensor, 0, len(s.sensors))
	for _, sensor := range s.sensors {
		sensors = append(sensors, sensor.Clone())
	}

	domain.SortSensors(sensors)

	return sensors
}
