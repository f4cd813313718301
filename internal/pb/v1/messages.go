package pb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Field names shared by every message.
const (
	FieldID           = "id"
	FieldName         = "name"
	FieldType         = "type"
	FieldActive       = "active"
	FieldAlarmStatus  = "alarm_status"
	FieldArmingStatus = "arming_status"
	FieldUpdatedAt    = "updated_at"
	FieldSensors      = "sensors"
	FieldCatDetected  = "cat_detected"
)

var (
	// ErrMissingField is returned when a required message field is absent.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidField is returned when a field has the wrong kind.
	ErrInvalidField = errors.New("invalid field")
)

// State is the externally visible controller state.
type State struct {
	// Snapshot holds statuses and sensors.
	Snapshot *domain.Snapshot
	// CatDetected is the last classifier verdict, nil until the first image.
	CatDetected *bool
}

// SensorToProto converts a domain sensor to its wire form.
func SensorToProto(s *domain.Sensor) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldID:     structpb.NewStringValue(s.ID),
			FieldName:   structpb.NewStringValue(s.Name),
			FieldType:   structpb.NewStringValue(s.Type.String()),
			FieldActive: structpb.NewBoolValue(s.Active),
		},
	}
}

// SensorFromProto converts the wire form back to a domain sensor.
func SensorFromProto(msg *structpb.Struct) (*domain.Sensor, error) {
	fields := msg.GetFields()

	id := fields[FieldID].GetStringValue()
	if id == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, FieldID)
	}

	sensorType, err := domain.ParseSensorType(fields[FieldType].GetStringValue())
	if err != nil {
		return nil, err
	}

	return &domain.Sensor{
		ID:     id,
		Name:   fields[FieldName].GetStringValue(),
		Type:   sensorType,
		Active: fields[FieldActive].GetBoolValue(),
	}, nil
}

// SensorsToProto converts a sensor list to a protobuf list value.
func SensorsToProto(sensors []*domain.Sensor) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(sensors))
	for _, s := range sensors {
		values = append(values, structpb.NewStructValue(SensorToProto(s)))
	}

	return &structpb.ListValue{Values: values}
}

// SensorsFromProto converts a protobuf list value to sensors.
func SensorsFromProto(list *structpb.ListValue) ([]*domain.Sensor, error) {
	sensors := make([]*domain.Sensor, 0, len(list.GetValues()))

	for i, value := range list.GetValues() {
		msg := value.GetStructValue()
		if msg == nil {
			return nil, fmt.Errorf("%w: %s[%d]", ErrInvalidField, FieldSensors, i)
		}

		s, err := SensorFromProto(msg)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", FieldSensors, i, err)
		}

		sensors = append(sensors, s)
	}

	return sensors, nil
}

// SnapshotToProto converts a snapshot to its wire form.
func SnapshotToProto(s *domain.Snapshot) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldAlarmStatus:  structpb.NewStringValue(s.AlarmStatus.String()),
		FieldArmingStatus: structpb.NewStringValue(s.ArmingStatus.String()),
		FieldSensors:      structpb.NewListValue(SensorsToProto(s.Sensors)),
	}

	if !s.UpdatedAt.IsZero() {
		fields[FieldUpdatedAt] = structpb.NewStringValue(s.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}

	return &structpb.Struct{Fields: fields}
}

// SnapshotFromProto converts the wire form back to a snapshot.
func SnapshotFromProto(msg *structpb.Struct) (*domain.Snapshot, error) {
	fields := msg.GetFields()

	alarmStatus, err := domain.ParseAlarmStatus(fields[FieldAlarmStatus].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldAlarmStatus, err)
	}

	armingStatus, err := domain.ParseArmingStatus(fields[FieldArmingStatus].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldArmingStatus, err)
	}

	sensors, err := SensorsFromProto(fields[FieldSensors].GetListValue())
	if err != nil {
		return nil, err
	}

	var updatedAt time.Time
	if raw := fields[FieldUpdatedAt].GetStringValue(); raw != "" {
		if updatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("%s: %w", FieldUpdatedAt, err)
		}
	}

	return &domain.Snapshot{
		UpdatedAt:    updatedAt,
		AlarmStatus:  alarmStatus,
		ArmingStatus: armingStatus,
		Sensors:      sensors,
	}, nil
}

// StateToProto converts the controller state to its wire form.
// cat_detected is null until the first image has been processed.
func StateToProto(state *State) *structpb.Struct {
	msg := SnapshotToProto(state.Snapshot)

	if state.CatDetected == nil {
		msg.Fields[FieldCatDetected] = structpb.NewNullValue()
	} else {
		msg.Fields[FieldCatDetected] = structpb.NewBoolValue(*state.CatDetected)
	}

	return msg
}

// StateFromProto converts the wire form back to the controller state.
func StateFromProto(msg *structpb.Struct) (*State, error) {
	snapshot, err := SnapshotFromProto(msg)
	if err != nil {
		return nil, err
	}

	state := &State{Snapshot: snapshot}

	if value, ok := msg.GetFields()[FieldCatDetected].GetKind().(*structpb.Value_BoolValue); ok {
		detected := value.BoolValue
		state.CatDetected = &detected
	}

	return state, nil
}

// NewSensorRequest builds the AddSensor request.
func NewSensorRequest(name string, sensorType domain.SensorType) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldName: structpb.NewStringValue(name),
			FieldType: structpb.NewStringValue(sensorType.String()),
		},
	}
}

// ParseSensorRequest extracts the name and type of an AddSensor request.
func ParseSensorRequest(msg *structpb.Struct) (string, domain.SensorType, error) {
	fields := msg.GetFields()

	name := strings.TrimSpace(fields[FieldName].GetStringValue())
	if name == "" {
		return "", 0, fmt.Errorf("%w: %s", ErrMissingField, FieldName)
	}

	sensorType, err := domain.ParseSensorType(fields[FieldType].GetStringValue())
	if err != nil {
		return "", 0, err
	}

	return name, sensorType, nil
}

// NewActivationRequest builds the SetSensorActivation request.
func NewActivationRequest(id string, active bool) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldID:     structpb.NewStringValue(id),
			FieldActive: structpb.NewBoolValue(active),
		},
	}
}

// ParseActivationRequest extracts the sensor identifier and the desired flag.
// The id may be omitted when the caller already knows it (HTTP path parameter).
func ParseActivationRequest(msg *structpb.Struct) (string, bool, error) {
	fields := msg.GetFields()

	active, ok := fields[FieldActive].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrMissingField, FieldActive)
	}

	return fields[FieldID].GetStringValue(), active.BoolValue, nil
}
