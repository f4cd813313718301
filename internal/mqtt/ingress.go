package mqtt

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/catpoint/internal/classifier"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// ingressQoS is delivered at least once.
const ingressQoS = 1

// Subscriber is the part of the MQTT client used to receive messages.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

// Controller is the part of the security controller driven by MQTT devices.
type Controller interface {
	ChangeSensorActivationByID(ctx context.Context, id string, active bool) error
	ProcessImage(ctx context.Context, img image.Image) error
}

// Ingress feeds sensor and camera messages into the controller.
type Ingress struct {
	client     Subscriber
	controller Controller
	topics     Topics
	timeout    time.Duration
}

// NewIngress creates an ingress for topics under prefix.
func NewIngress(client Subscriber, controller Controller, prefix string, timeout time.Duration) *Ingress {
	return &Ingress{
		client:     client,
		controller: controller,
		topics:     NewTopics(prefix),
		timeout:    timeout,
	}
}

// Run subscribes to sensor and camera topics and blocks until ctx is done.
func (in *Ingress) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "mqtt-ingress")

	topics := []string{in.topics.SensorStateFilter(), in.topics.Camera()}

	for _, topic := range topics {
		token := in.client.Subscribe(topic, ingressQoS, func(_ paho.Client, msg paho.Message) {
			if err := in.Dispatch(ctx, msg.Topic(), msg.Payload()); err != nil {
				logger.WarnKV(ctx, "Failed to handle MQTT message", "topic", msg.Topic(), "error", err)
			}
		})

		if !token.WaitTimeout(in.timeout) {
			return fmt.Errorf("subscribe to %s: %w", topic, ErrTimeout)
		}

		if err := token.Error(); err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}

		logger.InfoKV(ctx, "Subscribed to MQTT topic", "topic", topic)
	}

	<-ctx.Done()

	token := in.client.Unsubscribe(topics...)
	token.WaitTimeout(in.timeout)

	return nil
}

// Dispatch routes a message to the camera or sensor handler by topic.
func (in *Ingress) Dispatch(ctx context.Context, topic string, payload []byte) error {
	if topic == in.topics.Camera() {
		return in.HandleCamera(ctx, payload)
	}

	return in.HandleSensorState(ctx, topic, payload)
}

// HandleSensorState applies a sensor state message to a registered sensor.
func (in *Ingress) HandleSensorState(ctx context.Context, topic string, payload []byte) error {
	id, err := in.topics.ParseSensorState(topic)
	if err != nil {
		return err
	}

	active, err := ParseActivation(payload)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Sensor state received", "sensor_id", id, "active", active)

	err = in.controller.ChangeSensorActivationByID(ctx, id, active)
	if errors.Is(err, domain.ErrSensorNotFound) {
		return fmt.Errorf("ignore state of unregistered sensor: %w", err)
	}

	return err
}

// HandleCamera classifies a camera frame.
func (in *Ingress) HandleCamera(ctx context.Context, payload []byte) error {
	img, err := classifier.DecodeImage(payload)
	if err != nil {
		return err
	}

	return in.controller.ProcessImage(ctx, img)
}
