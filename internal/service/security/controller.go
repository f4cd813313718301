package security

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// DetectionThreshold is the classifier confidence required to report a cat.
const DetectionThreshold float32 = 0.5

// ErrInvalidSensor is returned when a sensor is nil or has no identifier.
var ErrInvalidSensor = errors.New("invalid sensor")

// Store holds the durable controller state. Reads are served from memory,
// writes return the persistence error, if any.
type Store interface {
	AlarmStatus() domain.AlarmStatus
	SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error
	ArmingStatus() domain.ArmingStatus
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error
	Sensors() []*domain.Sensor
	Sensor(id string) (*domain.Sensor, bool)
	AddSensor(ctx context.Context, sensor *domain.Sensor) error
	RemoveSensor(ctx context.Context, id string) error
	UpdateSensor(ctx context.Context, sensor *domain.Sensor) error
	Snapshot() *domain.Snapshot
}

// Classifier decides whether an image shows the monitored animal.
type Classifier interface {
	ContainsTarget(ctx context.Context, img image.Image, threshold float32) bool
}

// Controller owns the alarm state machine.
// Every exported method is one critical section.
type Controller struct {
	// store persists statuses and sensors.
	store Store
	// classifier analyzes camera images.
	classifier Classifier
	// observers is the set of registered observers.
	observers map[Observer]struct{}
	// catDetected is the last classifier verdict, nil until the first image.
	catDetected *bool
	// mu serializes every operation.
	mu sync.Mutex
}

// NewController creates a controller over the provided collaborators.
func NewController(store Store, classifier Classifier, observers ...Observer) *Controller {
	c := &Controller{
		store:      store,
		classifier: classifier,
		observers:  make(map[Observer]struct{}, len(observers)),
	}

	for _, o := range observers {
		c.observers[o] = struct{}{}
	}

	return c
}

// AddObserver registers an observer. Registering twice has no effect.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.observers[o] = struct{}{}
}

// RemoveObserver unregisters an observer.
func (c *Controller) RemoveObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.observers, o)
}

// AlarmStatus returns the current alarm status.
func (c *Controller) AlarmStatus() domain.AlarmStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.AlarmStatus()
}

// ArmingStatus returns the current arming status.
func (c *Controller) ArmingStatus() domain.ArmingStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.ArmingStatus()
}

// Detection returns the last classifier verdict and whether any image was processed yet.
func (c *Controller) Detection() (catDetected, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.catDetected == nil {
		return false, false
	}

	return *c.catDetected, true
}

// Sensors returns an immutable snapshot of the registered sensors.
// Changes must go through the controller operations.
func (c *Controller) Sensors() []*domain.Sensor {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Sensors()
}

// Sensor returns a copy of the sensor with the given identifier.
func (c *Controller) Sensor(id string) (*domain.Sensor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sensor, ok := c.store.Sensor(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSensorNotFound, id)
	}

	return sensor, nil
}

// Snapshot returns a copy of the persisted state.
func (c *Controller) Snapshot() *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Snapshot()
}

// AddSensor registers a sensor. It does not affect the alarm status.
func (c *Controller) AddSensor(ctx context.Context, sensor *domain.Sensor) error {
	if sensor == nil || sensor.ID == "" {
		return ErrInvalidSensor
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.AddSensor(ctx, sensor); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Sensor added", "sensor_id", sensor.ID, "name", sensor.Name, "type", sensor.Type.String())
	c.notifySensorsChanged(ctx)

	return nil
}

// RemoveSensor unregisters a sensor. It does not affect the alarm status.
func (c *Controller) RemoveSensor(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.RemoveSensor(ctx, id); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Sensor removed", "sensor_id", id)
	c.notifySensorsChanged(ctx)

	return nil
}

// SetArmingStatus changes the monitoring mode and applies its side effects:
// arming at home while a cat is detected raises the alarm, disarming clears it,
// and arming in any mode resets every sensor to inactive.
func (c *Controller) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.catDetected != nil && *c.catDetected && status == domain.ArmedHome {
		if err := c.setAlarmStatus(ctx, domain.Alarm); err != nil {
			return err
		}
	}

	if status == domain.Disarmed {
		if err := c.setAlarmStatus(ctx, domain.NoAlarm); err != nil {
			return err
		}
	} else {
		// Sensors() is a snapshot, so mutating the store while iterating is safe.
		for _, sensor := range c.store.Sensors() {
			if err := c.changeSensorActivation(ctx, sensor, false); err != nil {
				return err
			}
		}
	}

	if err := c.store.SetArmingStatus(ctx, status); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Arming status changed", "arming_status", status.String())
	c.notifySensorsChanged(ctx)

	return nil
}

// SetAlarmStatus overrides the alarm status and informs observers.
func (c *Controller) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setAlarmStatus(ctx, status)
}

// ChangeSensorActivation sets the sensor's active flag and applies the alarm
// transition of a genuine edge. While the alarm is fully triggered only the
// flag changes. The sensor is upserted by identifier.
func (c *Controller) ChangeSensorActivation(ctx context.Context, sensor *domain.Sensor, active bool) error {
	if sensor == nil || sensor.ID == "" {
		return ErrInvalidSensor
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.changeSensorActivation(ctx, sensor, active); err != nil {
		return err
	}

	c.notifySensorsChanged(ctx)

	return nil
}

// ChangeSensorActivationByID is ChangeSensorActivation for a registered
// sensor. The lookup and the change happen in one critical section, so a
// sensor removed concurrently is reported as not found instead of re-added.
func (c *Controller) ChangeSensorActivationByID(ctx context.Context, id string, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sensor, ok := c.store.Sensor(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSensorNotFound, id)
	}

	if err := c.changeSensorActivation(ctx, sensor, active); err != nil {
		return err
	}

	c.notifySensorsChanged(ctx)

	return nil
}

// ReevaluateSensor reconciles the alarm status with the sensor's current flag
// and persists the sensor as given. An inactive sensor unwinds a pending
// alarm, and a full alarm steps down one level once the system is disarmed.
func (c *Controller) ReevaluateSensor(ctx context.Context, sensor *domain.Sensor) error {
	if sensor == nil || sensor.ID == "" {
		return ErrInvalidSensor
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reevaluateSensor(ctx, sensor)
}

// reevaluateSensor applies the reevaluation rules and persists the sensor.
func (c *Controller) reevaluateSensor(ctx context.Context, sensor *domain.Sensor) error {
	var (
		alarmStatus  = c.store.AlarmStatus()
		armingStatus = c.store.ArmingStatus()
	)

	if (alarmStatus == domain.PendingAlarm && !sensor.Active) ||
		(alarmStatus == domain.Alarm && armingStatus == domain.Disarmed) {
		if err := c.onSensorDeactivated(ctx); err != nil {
			return err
		}
	}

	if err := c.store.UpdateSensor(ctx, sensor); err != nil {
		return err
	}

	c.notifySensorsChanged(ctx)

	return nil
}

// ReevaluateSensorByID is ReevaluateSensor for the stored state of a
// registered sensor, looked up in the same critical section.
func (c *Controller) ReevaluateSensorByID(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sensor, ok := c.store.Sensor(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSensorNotFound, id)
	}

	return c.reevaluateSensor(ctx, sensor)
}

// ProcessImage classifies a camera image and applies the detection result.
// The classifier runs outside the lock since it keeps no state.
func (c *Controller) ProcessImage(ctx context.Context, img image.Image) error {
	catDetected := c.classifier.ContainsTarget(ctx, img, DetectionThreshold)

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.onDetectionChanged(ctx, catDetected)
}

// onDetectionChanged caches the verdict and applies its alarm rules.
func (c *Controller) onDetectionChanged(ctx context.Context, catDetected bool) error {
	c.catDetected = &catDetected

	if catDetected && c.store.ArmingStatus() == domain.ArmedHome {
		if err := c.setAlarmStatus(ctx, domain.Alarm); err != nil {
			return err
		}
	}

	if !catDetected && !domain.AnyActive(c.store.Sensors()) {
		if err := c.setAlarmStatus(ctx, domain.NoAlarm); err != nil {
			return err
		}
	}

	for o := range c.observers {
		o.DetectionChanged(ctx, catDetected)
	}

	return nil
}

// changeSensorActivation applies the edge rules without notifying observers.
// The previous flag comes from the store when the sensor is registered.
func (c *Controller) changeSensorActivation(ctx context.Context, sensor *domain.Sensor, active bool) error {
	updated := sensor.Clone()
	if stored, ok := c.store.Sensor(sensor.ID); ok {
		updated = stored
	}

	wasActive := updated.Active

	if c.store.AlarmStatus() != domain.Alarm {
		var err error

		switch {
		case active && !wasActive:
			err = c.onSensorActivated(ctx)
		case !active && wasActive:
			err = c.onSensorDeactivated(ctx)
		}

		if err != nil {
			return err
		}
	}

	updated.Active = active

	if err := c.store.UpdateSensor(ctx, updated); err != nil {
		return err
	}

	if wasActive != active {
		logger.DebugKV(ctx, "Sensor activation changed", "sensor_id", updated.ID, "active", active)
	}

	return nil
}

// onSensorActivated escalates the alarm one level while the system is armed.
func (c *Controller) onSensorActivated(ctx context.Context) error {
	if c.store.ArmingStatus() == domain.Disarmed {
		return nil
	}

	switch c.store.AlarmStatus() {
	case domain.NoAlarm:
		return c.setAlarmStatus(ctx, domain.PendingAlarm)
	case domain.PendingAlarm:
		return c.setAlarmStatus(ctx, domain.Alarm)
	default:
		return nil
	}
}

// onSensorDeactivated steps the alarm down one level.
func (c *Controller) onSensorDeactivated(ctx context.Context) error {
	switch c.store.AlarmStatus() {
	case domain.PendingAlarm:
		return c.setAlarmStatus(ctx, domain.NoAlarm)
	case domain.Alarm:
		return c.setAlarmStatus(ctx, domain.PendingAlarm)
	default:
		return nil
	}
}

// setAlarmStatus is the only writer of the alarm status.
func (c *Controller) setAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	previous := c.store.AlarmStatus()

	if err := c.store.SetAlarmStatus(ctx, status); err != nil {
		logger.ErrorKV(ctx, "Failed to persist alarm status", "alarm_status", status.String(), "error", err)

		return err
	}

	if previous != status {
		logger.InfoKV(ctx, "Alarm status changed", "from", previous.String(), "to", status.String())
	}

	for o := range c.observers {
		o.AlarmStatusChanged(ctx, status)
	}

	return nil
}

// notifySensorsChanged sends every observer its own copy of the sensor set.
func (c *Controller) notifySensorsChanged(ctx context.Context) {
	for o := range c.observers {
		o.SensorsChanged(ctx, c.store.Sensors())
	}
}
