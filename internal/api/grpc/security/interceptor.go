package security

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// ActorFromContext extracts the caller identity from incoming metadata.
func ActorFromContext(ctx context.Context) *domain.Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	values := md.Get(pb.ActorMetadataKey)
	if len(values) == 0 {
		return nil
	}

	return domain.ParseActor(values[0])
}

// LoggingInterceptor scopes the logger to the method and caller and logs the outcome.
func LoggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	ctx = logger.WithFields(ctx,
		"method", info.FullMethod,
		"actor", ActorFromContext(ctx).String(),
	)

	started := time.Now()

	resp, err := handler(ctx, req)
	if err != nil {
		logger.WarnKV(ctx, "Request failed",
			"code", status.Code(err).String(),
			"duration", time.Since(started),
			"error", err,
		)

		return resp, err
	}

	logger.DebugKV(ctx, "Request served", "duration", time.Since(started))

	return resp, nil
}
