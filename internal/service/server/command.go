package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/catpoint/internal/api/grpc/security"
	"github.com/oshokin/catpoint/internal/api/rest"
	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/metrics"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
	"github.com/oshokin/catpoint/internal/service/security"
	"github.com/oshokin/catpoint/internal/version"
)

// Options controls the catpoint-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile overrides the state file or database path from the settings.
	StateFile string
	// Force skips the check for another running server.
	Force bool
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// httpShutdownTimeout bounds the graceful shutdown of the HTTP API.
const httpShutdownTimeout = 5 * time.Second

// Run starts the controller with its gRPC, HTTP and MQTT surfaces and blocks
// until ctx is canceled or one of the servers fails.
//
//nolint:funlen // Wiring reads best as one sequence.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "catpoint-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if !logger.Configure(settings.Log.Level, logger.Format(settings.Log.Format)) {
		logger.WarnKV(ctx, "Unknown log level, keeping the current one", "level", settings.Log.Level)
	}

	// The controller state must have exactly one owner.
	if !opts.Force {
		if err = ensureSingleInstance(ctx); err != nil {
			return err
		}
	}

	// Use the state path from config unless overridden by command line option.
	if opts.StateFile != "" {
		settings.State.Path = opts.StateFile
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	// Open the persisted state and build the controller around it.
	store, closeStore, err := openStore(ctx, settings.State)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}

	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close state", "error", closeErr)
		}
	}()

	controller := security.NewController(store, newClassifier(settings), security.NewLogObserver())

	// Metrics are always collected; they are only served when the HTTP API is enabled.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metricsObserver := metrics.NewObserver(registry)
	metricsObserver.Init(controller.Snapshot())
	controller.AddObserver(metricsObserver)

	if closeHistory := attachHistory(ctx, settings.Influx, controller); closeHistory != nil {
		defer closeHistory()
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if settings.MQTT.Broker != "" {
		if err = attachMQTT(ctx, g, settings, controller); err != nil {
			_ = lis.Close()

			return err
		}
	}

	transport := api.NewServer(controller)

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(api.LoggingInterceptor))
	pb.RegisterSecurityServiceServer(grpcServer, transport)

	logger.InfoKV(ctx, "Security controller listening",
		"listen_address", listenAddress,
		"state_driver", settings.State.Driver,
		"state_path", settings.State.Path,
		"classifier", settings.Classifier.Kind,
		"version", version.Short(),
	)

	g.Go(func() error {
		if serveErr := grpcServer.Serve(lis); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", serveErr)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()

		return nil
	})

	if settings.HTTPAddress != "" {
		metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		serveHTTP(ctx, g, settings.HTTPAddress, rest.NewRouter(transport, metricsHandler))
	}

	if err = g.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "Security controller stopped")

	return nil
}

// serveHTTP runs the HTTP API until ctx is done.
func serveHTTP(ctx context.Context, g *errgroup.Group, address string, handler http.Handler) {
	httpServer := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: httpShutdownTimeout,
		BaseContext: func(net.Listener) context.Context {
			return logger.WithName(context.WithoutCancel(ctx), "http")
		},
	}

	g.Go(func() error {
		logger.InfoKV(ctx, "HTTP API listening", "listen_address", address)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpShutdownTimeout)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	})
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	// Extract port from config address (e.g., "server.example.com:8080" -> ":8080").
	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
