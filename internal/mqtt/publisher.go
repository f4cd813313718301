package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// eventQoS is delivered at least once.
const eventQoS = 1

// Publisher is the part of the MQTT client used to send messages.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
}

// EventPublisher publishes controller notifications as retained messages.
// Deliveries are confirmed in the background so callbacks never block on the broker.
type EventPublisher struct {
	client  Publisher
	topics  Topics
	timeout time.Duration
}

// NewEventPublisher creates an observer publishing under prefix.
func NewEventPublisher(client Publisher, prefix string, timeout time.Duration) *EventPublisher {
	return &EventPublisher{
		client:  client,
		topics:  NewTopics(prefix),
		timeout: timeout,
	}
}

// AlarmStatusChanged implements security.Observer.
func (p *EventPublisher) AlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	p.publish(ctx, p.topics.AlarmEvents(), &structpb.Struct{
		Fields: map[string]*structpb.Value{
			pb.FieldAlarmStatus: structpb.NewStringValue(status.String()),
		},
	})
}

// DetectionChanged implements security.Observer.
func (p *EventPublisher) DetectionChanged(ctx context.Context, catDetected bool) {
	p.publish(ctx, p.topics.DetectionEvents(), &structpb.Struct{
		Fields: map[string]*structpb.Value{
			pb.FieldCatDetected: structpb.NewBoolValue(catDetected),
		},
	})
}

// SensorsChanged implements security.Observer.
func (p *EventPublisher) SensorsChanged(ctx context.Context, sensors []*domain.Sensor) {
	p.publish(ctx, p.topics.SensorEvents(), pb.SensorsToProto(sensors))
}

func (p *EventPublisher) publish(ctx context.Context, topic string, msg proto.Message) {
	payload, err := protojson.Marshal(msg)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to encode MQTT event", "topic", topic, "error", err)

		return
	}

	token := p.client.Publish(topic, eventQoS, true, payload)

	go func() {
		if !token.WaitTimeout(p.timeout) {
			logger.WarnKV(ctx, "MQTT publish timed out", "topic", topic)

			return
		}

		if err := token.Error(); err != nil {
			logger.WarnKV(ctx, "MQTT publish failed", "topic", topic, "error", err)

			return
		}

		logger.DebugKV(ctx, "MQTT event published", "topic", topic)
	}()
}
