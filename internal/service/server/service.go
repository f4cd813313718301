package server

import (
	"context"
	"errors"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/catpoint/internal/classifier"
	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/history"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/mqtt"
	"github.com/oshokin/catpoint/internal/repository/state"
	"github.com/oshokin/catpoint/internal/service/security"
)

// errUnsupportedDriver is returned for state drivers without a repository.
var errUnsupportedDriver = errors.New("unsupported state driver")

// openStore builds the repository selected by the settings and loads the state.
// The returned function releases the repository.
func openStore(ctx context.Context, settings config.StateConfig) (*state.Store, func() error, error) {
	var (
		repo    state.Repository
		closeFn = func() error { return nil }
	)

	switch settings.Driver {
	case config.DriverFile, "":
		repo = state.NewFileRepository(settings.Path)
	case config.DriverSQLite:
		sqlite, err := state.NewSQLiteRepository(ctx, settings.Path)
		if err != nil {
			return nil, nil, err
		}

		repo, closeFn = sqlite, sqlite.Close
	case config.DriverMemory:
	default:
		return nil, nil, fmt.Errorf("%w: %q", errUnsupportedDriver, settings.Driver)
	}

	store, err := state.Open(ctx, repo)
	if err != nil {
		_ = closeFn()

		return nil, nil, err
	}

	return store, closeFn, nil
}

// newClassifier builds the classifier selected by the settings.
func newClassifier(settings *config.Config) security.Classifier {
	cfg := settings.Classifier

	if cfg.Kind != config.ClassifierRemote {
		return classifier.NewRandom(cfg.Seed)
	}

	return classifier.NewRemote(classifier.RemoteSettings{
		URL:         cfg.URL,
		Target:      cfg.Target,
		Fallback:    cfg.Fallback,
		Timeout:     settings.Timeout,
		MaxFailures: cfg.MaxFailures,
		OpenTimeout: cfg.OpenTimeout,
	})
}

// attachHistory registers the InfluxDB observer when it is configured.
// The returned function flushes pending points and closes the client.
func attachHistory(ctx context.Context, settings config.InfluxConfig, controller *security.Controller) func() {
	if settings.URL == "" {
		return nil
	}

	client := influxdb2.NewClient(settings.URL, settings.Token)
	writeAPI := client.WriteAPI(settings.Org, settings.Bucket)

	controller.AddObserver(history.NewObserver(ctx, writeAPI))
	logger.InfoKV(ctx, "Recording history in InfluxDB", "url", settings.URL, "bucket", settings.Bucket)

	return func() {
		writeAPI.Flush()
		client.Close()
	}
}

// attachMQTT connects to the broker, publishes controller events and feeds
// device messages into the controller until ctx is done.
func attachMQTT(ctx context.Context, g *errgroup.Group, settings *config.Config, controller *security.Controller) error {
	client, err := mqtt.Connect(ctx, settings.MQTT, settings.Timeout)
	if err != nil {
		return err
	}

	controller.AddObserver(mqtt.NewEventPublisher(client, settings.MQTT.TopicPrefix, settings.Timeout))

	ingress := mqtt.NewIngress(client, controller, settings.MQTT.TopicPrefix, settings.Timeout)

	g.Go(func() error {
		return ingress.Run(ctx)
	})

	return nil
}
