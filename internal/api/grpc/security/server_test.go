package security

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
	"github.com/oshokin/catpoint/internal/repository/state"
	service "github.com/oshokin/catpoint/internal/service/security"
)

// stubClassifier always returns the same verdict.
type stubClassifier bool

// ContainsTarget returns the stub verdict.
func (c stubClassifier) ContainsTarget(context.Context, image.Image, float32) bool {
	return bool(c)
}

// newTestServer creates a server over a real controller with an in-memory store.
func newTestServer(catDetected bool) *Server {
	controller := service.NewController(state.NewMemoryStore(), stubClassifier(catDetected))

	return NewServer(controller)
}

// addSensor registers a sensor through the API and returns its identifier.
func addSensor(t *testing.T, s *Server, name string) string {
	t.Helper()

	resp, err := s.AddSensor(context.Background(), pb.NewSensorRequest(name, domain.Window))
	require.NoError(t, err)

	sensor, err := pb.SensorFromProto(resp)
	require.NoError(t, err)
	require.Equal(t, name, sensor.Name)
	require.False(t, sensor.Active)

	return sensor.ID
}

// TestServer_Validation ensures malformed requests return InvalidArgument errors.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		s   = newTestServer(false)
	)

	_, err := s.SetArmingStatus(ctx, wrapperspb.String("ARMED_SOMEWHERE"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetAlarmStatus(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.AddSensor(ctx, &structpb.Struct{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.RemoveSensor(ctx, wrapperspb.String(""))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetSensorActivation(ctx, pb.NewActivationRequest("", true))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ProcessImage(ctx, wrapperspb.Bytes([]byte("not an image")))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_NotFound ensures unknown sensors return NotFound errors.
func TestServer_NotFound(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		s   = newTestServer(false)
	)

	_, err := s.RemoveSensor(ctx, wrapperspb.String("missing"))
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.SetSensorActivation(ctx, pb.NewActivationRequest("missing", true))
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.ReevaluateSensor(ctx, wrapperspb.String("missing"))
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestServer_Roundtrip drives the alarm through the API.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		s   = newTestServer(false)
	)

	front := addSensor(t, s, "Front window")
	back := addSensor(t, s, "Back window")

	list, err := s.ListSensors(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.Len(t, list.GetValues(), 2)

	_, err = s.SetArmingStatus(ctx, wrapperspb.String("away"))
	require.NoError(t, err)

	resp, err := s.SetSensorActivation(ctx, pb.NewActivationRequest(front, true))
	require.NoError(t, err)
	require.True(t, resp.GetFields()[pb.FieldActive].GetBoolValue())

	_, err = s.SetSensorActivation(ctx, pb.NewActivationRequest(back, true))
	require.NoError(t, err)

	stateResp, err := s.GetState(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	got, err := pb.StateFromProto(stateResp)
	require.NoError(t, err)
	require.Equal(t, domain.Alarm, got.Snapshot.AlarmStatus)
	require.Equal(t, domain.ArmedAway, got.Snapshot.ArmingStatus)
	require.Nil(t, got.CatDetected)

	stateResp, err = s.SetArmingStatus(ctx, wrapperspb.String(domain.Disarmed.String()))
	require.NoError(t, err)

	got, err = pb.StateFromProto(stateResp)
	require.NoError(t, err)
	require.Equal(t, domain.NoAlarm, got.Snapshot.AlarmStatus)

	_, err = s.RemoveSensor(ctx, wrapperspb.String(front))
	require.NoError(t, err)

	list, err = s.ListSensors(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.Len(t, list.GetValues(), 1)
}

// TestServer_ReevaluateAndOverride covers the operator override and reevaluation.
func TestServer_ReevaluateAndOverride(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		s   = newTestServer(false)
	)

	id := addSensor(t, s, "Hall")

	_, err := s.SetAlarmStatus(ctx, wrapperspb.String(domain.Alarm.String()))
	require.NoError(t, err)

	resp, err := s.ReevaluateSensor(ctx, wrapperspb.String(id))
	require.NoError(t, err)

	got, err := pb.StateFromProto(resp)
	require.NoError(t, err)
	require.Equal(t, domain.PendingAlarm, got.Snapshot.AlarmStatus)
}

// TestServer_ProcessImage raises the alarm when a cat is seen at home.
func TestServer_ProcessImage(t *testing.T) {
	t.Parallel()

	var (
		ctx   = context.Background()
		s     = newTestServer(true)
		frame bytes.Buffer
	)

	require.NoError(t, png.Encode(&frame, image.NewGray(image.Rect(0, 0, 4, 4))))

	_, err := s.SetArmingStatus(ctx, wrapperspb.String("home"))
	require.NoError(t, err)

	resp, err := s.ProcessImage(ctx, wrapperspb.Bytes(frame.Bytes()))
	require.NoError(t, err)

	got, err := pb.StateFromProto(resp)
	require.NoError(t, err)
	require.Equal(t, domain.Alarm, got.Snapshot.AlarmStatus)
	require.NotNil(t, got.CatDetected)
	require.True(t, *got.CatDetected)
}

// TestLoggingInterceptor passes the call through and reads the actor metadata.
func TestLoggingInterceptor(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs(pb.ActorMetadataKey, "o.shokin@gatehouse"))

	require.Equal(t, &domain.Actor{Hostname: "gatehouse", Username: "o.shokin"}, ActorFromContext(ctx))
	require.Nil(t, ActorFromContext(context.Background()))

	info := &grpc.UnaryServerInfo{FullMethod: pb.FullMethod(pb.MethodGetState)}

	resp, err := LoggingInterceptor(ctx, "req", info, func(_ context.Context, req any) (any, error) {
		return req, nil
	})
	require.NoError(t, err)
	require.Equal(t, "req", resp)

	_, err = LoggingInterceptor(ctx, "req", info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestServer_ActivationOfRemovedSensor reports NotFound and keeps the sensor removed.
func TestServer_ActivationOfRemovedSensor(t *testing.T) {
	t.Parallel()

	var (
		ctx = context.Background()
		s   = newTestServer(false)
		id  = addSensor(t, s, "Back door")
	)

	_, err := s.SetArmingStatus(ctx, wrapperspb.String(domain.ArmedAway.String()))
	require.NoError(t, err)

	_, err = s.RemoveSensor(ctx, wrapperspb.String(id))
	require.NoError(t, err)

	_, err = s.SetSensorActivation(ctx, pb.NewActivationRequest(id, true))
	require.Equal(t, codes.NotFound, status.Code(err))

	list, err := s.ListSensors(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.Empty(t, list.GetValues())

	resp, err := s.GetState(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	got, err := pb.StateFromProto(resp)
	require.NoError(t, err)
	require.Equal(t, domain.NoAlarm, got.Snapshot.AlarmStatus)
}
