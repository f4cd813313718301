package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/logger"
)

const (
	// connectAttempts is the number of connection attempts before giving up.
	connectAttempts = 5
	// connectMaxElapsed bounds the total time spent connecting.
	connectMaxElapsed = 30 * time.Second
	// disconnectQuiesce is how long pending work may finish on disconnect, in milliseconds.
	disconnectQuiesce = 250
)

// Connect opens a broker connection, retrying with exponential backoff.
// The connection is closed when ctx is done.
func Connect(ctx context.Context, cfg config.MQTTConfig, timeout time.Duration) (paho.Client, error) {
	// paho logs through package level loggers.
	pahoCtx := logger.WithName(ctx, "paho")
	paho.CRITICAL = logger.StdLog(pahoCtx, zapcore.ErrorLevel)
	paho.ERROR = logger.StdLog(pahoCtx, zapcore.ErrorLevel)
	paho.WARN = logger.StdLog(pahoCtx, zapcore.WarnLevel)

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectTimeout(timeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.WarnKV(ctx, "MQTT connection lost", "error", err)
		})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed

	var client paho.Client

	err := backoff.Retry(func() error {
		client = paho.NewClient(opts)

		token := client.Connect()
		if token.Wait() && token.Error() != nil {
			logger.WarnKV(ctx, "Failed to connect to MQTT broker", "broker", cfg.Broker, "error", token.Error())

			return token.Error()
		}

		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, connectAttempts-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	logger.InfoKV(ctx, "Connected to MQTT broker", "broker", cfg.Broker)

	go func() {
		<-ctx.Done()
		client.Disconnect(disconnectQuiesce)
		logger.Info(ctx, "MQTT connection closed")
	}()

	return client, nil
}
