package client

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/service/common"
)

// Options configures how catpoint-ctl reaches the controller.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Wait retries the action until the controller answers or ctx is canceled.
	Wait bool

	// Output receives the report, defaults to stdout.
	Output io.Writer
}

// Action is one operation performed against the controller.
type Action func(ctx context.Context, client *common.Client, out io.Writer) error

// maxRetryInterval caps the delay between attempts in wait mode.
const maxRetryInterval = 10 * time.Second

// Run connects to the controller and executes action.
func Run(ctx context.Context, opts *Options, action Action) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "catpoint-ctl")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	// Connect to the controller with timeout from config.
	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected to controller", "server_address", serverAddress, "actor", actor.String())

	if !opts.Wait {
		return action(ctx, client, out)
	}

	return retry(ctx, func() error {
		return action(ctx, client, out)
	})
}

// retry repeats operation with exponential backoff until it succeeds,
// fails permanently or ctx is canceled.
func retry(ctx context.Context, operation func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = maxRetryInterval
	bo.MaxElapsedTime = 0

	return backoff.RetryNotify(
		func() error {
			err := operation()
			if err != nil && !isTransient(err) {
				return backoff.Permanent(err)
			}

			return err
		},
		backoff.WithContext(bo, ctx),
		func(err error, next time.Duration) {
			logger.WarnKV(ctx, "Controller unavailable, retrying", "error", err, "next_attempt", next.String())
		},
	)
}

// isTransient reports whether err may go away on its own.
func isTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
