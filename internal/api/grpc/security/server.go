package security

import (
	"context"
	"errors"
	"image"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/catpoint/internal/classifier"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
	service "github.com/oshokin/catpoint/internal/service/security"
)

// Service abstracts the controller operations the transport layer depends on.
type Service interface {
	Snapshot() *domain.Snapshot
	Detection() (catDetected, known bool)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error
	SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error
	Sensors() []*domain.Sensor
	Sensor(id string) (*domain.Sensor, error)
	AddSensor(ctx context.Context, sensor *domain.Sensor) error
	RemoveSensor(ctx context.Context, id string) error
	ChangeSensorActivationByID(ctx context.Context, id string, active bool) error
	ReevaluateSensorByID(ctx context.Context, id string) error
	ProcessImage(ctx context.Context, img image.Image) error
}

// Server implements the SecurityService gRPC API.
type Server struct {
	// service provides the controller operations.
	service Service
}

// NewServer wires the provided controller into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetState returns statuses, sensors and the last detection verdict.
func (s *Server) GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return s.state(), nil
}

// SetArmingStatus changes the monitoring mode.
func (s *Server) SetArmingStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	armingStatus, err := domain.ParseArmingStatus(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.SetArmingStatus(ctx, armingStatus); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.state(), nil
}

// SetAlarmStatus overrides the alarm status.
func (s *Server) SetAlarmStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	alarmStatus, err := domain.ParseAlarmStatus(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.SetAlarmStatus(ctx, alarmStatus); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.state(), nil
}

// ListSensors returns every registered sensor.
func (s *Server) ListSensors(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return pb.SensorsToProto(s.service.Sensors()), nil
}

// AddSensor registers a new inactive sensor and returns it with its identifier.
func (s *Server) AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, sensorType, err := pb.ParseSensorRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	sensor := domain.NewSensor(name, sensorType)

	if err = s.service.AddSensor(ctx, sensor); err != nil {
		return nil, toStatus(ctx, err)
	}

	return pb.SensorToProto(sensor), nil
}

// RemoveSensor unregisters a sensor.
func (s *Server) RemoveSensor(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	id := req.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "sensor id is required")
	}

	if err := s.service.RemoveSensor(ctx, id); err != nil {
		return nil, toStatus(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// SetSensorActivation activates or deactivates a registered sensor.
func (s *Server) SetSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, active, err := pb.ParseActivationRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "sensor id is required")
	}

	if err = s.service.ChangeSensorActivationByID(ctx, id, active); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.sensor(ctx, id)
}

// ReevaluateSensor reconciles the alarm status with a registered sensor.
func (s *Server) ReevaluateSensor(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := req.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "sensor id is required")
	}

	if err := s.service.ReevaluateSensorByID(ctx, id); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.state(), nil
}

// ProcessImage classifies a PNG or JPEG camera frame.
func (s *Server) ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	img, err := classifier.DecodeImage(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.ProcessImage(ctx, img); err != nil {
		return nil, toStatus(ctx, err)
	}

	return s.state(), nil
}

// state builds the GetState response.
func (s *Server) state() *structpb.Struct {
	state := &pb.State{Snapshot: s.service.Snapshot()}

	if catDetected, known := s.service.Detection(); known {
		state.CatDetected = &catDetected
	}

	return pb.StateToProto(state)
}

// sensor returns the stored form of a sensor.
func (s *Server) sensor(ctx context.Context, id string) (*structpb.Struct, error) {
	sensor, err := s.service.Sensor(id)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return pb.SensorToProto(sensor), nil
}

// toStatus maps controller errors to gRPC status errors.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrSensorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSensor):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		logger.ErrorKV(ctx, "Controller operation failed", "error", err)

		return status.Error(codes.Internal, "unable to persist state")
	}
}
