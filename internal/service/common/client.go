//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// Client wraps the SecurityService client and converts responses to domain types.
type Client struct {
	// conn is the underlying gRPC connection to the controller.
	conn *grpc.ClientConn
	// api is the SecurityService client.
	api *pb.SecurityServiceClient

	// actor is sent with every call for the audit log.
	actor *domain.Actor
	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller on every request.
func WithActor(actor *domain.Actor) Option {
	return func(c *Client) {
		c.actor = actor.Clone()
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the controller.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial controller: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewSecurityServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// State retrieves statuses, sensors and the last detection verdict.
func (c *Client) State(ctx context.Context) (*pb.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetState(callCtx)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	return pb.StateFromProto(resp)
}

// SetArmingStatus changes the monitoring mode.
func (c *Client) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) (*pb.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SetArmingStatus(callCtx, status.String())
	if err != nil {
		return nil, fmt.Errorf("set arming status: %w", err)
	}

	return pb.StateFromProto(resp)
}

// SetAlarmStatus overrides the alarm status.
func (c *Client) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) (*pb.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SetAlarmStatus(callCtx, status.String())
	if err != nil {
		return nil, fmt.Errorf("set alarm status: %w", err)
	}

	return pb.StateFromProto(resp)
}

// Sensors lists the registered sensors.
func (c *Client) Sensors(ctx context.Context) ([]*domain.Sensor, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListSensors(callCtx)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}

	return pb.SensorsFromProto(resp)
}

// AddSensor registers a new sensor and returns it with the assigned identifier.
func (c *Client) AddSensor(ctx context.Context, name string, sensorType domain.SensorType) (*domain.Sensor, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.AddSensor(callCtx, pb.NewSensorRequest(name, sensorType))
	if err != nil {
		return nil, fmt.Errorf("add sensor: %w", err)
	}

	return pb.SensorFromProto(resp)
}

// RemoveSensor unregisters a sensor.
func (c *Client) RemoveSensor(ctx context.Context, id string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.api.RemoveSensor(callCtx, id); err != nil {
		return fmt.Errorf("remove sensor: %w", err)
	}

	return nil
}

// SetSensorActivation activates or deactivates a sensor.
func (c *Client) SetSensorActivation(ctx context.Context, id string, active bool) (*domain.Sensor, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SetSensorActivation(callCtx, pb.NewActivationRequest(id, active))
	if err != nil {
		return nil, fmt.Errorf("set sensor activation: %w", err)
	}

	return pb.SensorFromProto(resp)
}

// ReevaluateSensor reconciles the alarm status with a sensor.
func (c *Client) ReevaluateSensor(ctx context.Context, id string) (*pb.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ReevaluateSensor(callCtx, id)
	if err != nil {
		return nil, fmt.Errorf("reevaluate sensor: %w", err)
	}

	return pb.StateFromProto(resp)
}

// ProcessImage sends a PNG or JPEG frame to the classifier.
func (c *Client) ProcessImage(ctx context.Context, data []byte) (*pb.State, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ProcessImage(callCtx, data)
	if err != nil {
		return nil, fmt.Errorf("process image: %w", err)
	}

	return pb.StateFromProto(resp)
}

// callContext returns a context carrying the actor metadata and the client's
// call timeout if configured, otherwise a cancellable child context.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.actor != nil {
		ctx = metadata.AppendToOutgoingContext(ctx, pb.ActorMetadataKey, c.actor.String())
	}

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
