package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

const namespace = "catpoint"

// Sensor state label values.
const (
	SensorStateActive   = "active"
	SensorStateInactive = "inactive"
)

// Observer mirrors controller notifications into Prometheus collectors.
type Observer struct {
	// alarmStatus is a one-hot gauge over every alarm status.
	alarmStatus *prometheus.GaugeVec
	// transitions counts alarm status changes by target status.
	transitions *prometheus.CounterVec
	// catDetected is 1 while the last image showed a cat.
	catDetected prometheus.Gauge
	// sensors counts sensors by activation state.
	sensors *prometheus.GaugeVec
	// current is the last published alarm status.
	current domain.AlarmStatus
	// mu guards current.
	mu sync.Mutex
}

// NewObserver registers the collectors with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)

	return &Observer{
		alarmStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alarm_status",
			Help:      "Current alarm status, 1 for the active status and 0 otherwise.",
		}, []string{"status"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_transitions_total",
			Help:      "Number of alarm status changes by target status.",
		}, []string{"status"}),
		catDetected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cat_detected",
			Help:      "Whether the last processed image showed a cat.",
		}),
		sensors: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensors",
			Help:      "Number of registered sensors by activation state.",
		}, []string{"state"}),
	}
}

// Init publishes the state the controller starts with.
func (o *Observer) Init(snapshot *domain.Snapshot) {
	o.mu.Lock()
	o.current = snapshot.AlarmStatus
	o.mu.Unlock()

	o.setAlarmStatus(snapshot.AlarmStatus)
	o.setSensors(snapshot.Sensors)
}

// AlarmStatusChanged implements security.Observer.
// Notifications that repeat the current status are not counted as transitions.
func (o *Observer) AlarmStatusChanged(_ context.Context, status domain.AlarmStatus) {
	o.mu.Lock()
	changed := o.current != status
	o.current = status
	o.mu.Unlock()

	if changed {
		o.transitions.WithLabelValues(status.String()).Inc()
	}

	o.setAlarmStatus(status)
}

// DetectionChanged implements security.Observer.
func (o *Observer) DetectionChanged(_ context.Context, catDetected bool) {
	if catDetected {
		o.catDetected.Set(1)

		return
	}

	o.catDetected.Set(0)
}

// SensorsChanged implements security.Observer.
func (o *Observer) SensorsChanged(_ context.Context, sensors []*domain.Sensor) {
	o.setSensors(sensors)
}

func (o *Observer) setAlarmStatus(current domain.AlarmStatus) {
	for _, status := range domain.AlarmStatuses() {
		value := 0.0
		if status == current {
			value = 1
		}

		o.alarmStatus.WithLabelValues(status.String()).Set(value)
	}
}

func (o *Observer) setSensors(sensors []*domain.Sensor) {
	var active int

	for _, s := range sensors {
		if s.Active {
			active++
		}
	}

	o.sensors.WithLabelValues(SensorStateActive).Set(float64(active))
	o.sensors.WithLabelValues(SensorStateInactive).Set(float64(len(sensors) - active))
}
