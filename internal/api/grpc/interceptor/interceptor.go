package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"library-backend/internal/logger"
)

// RequestIDFunc extracts or creates the request id of an incoming call
type RequestIDFunc func(ctx context.Context) string

// Logging returns a unary interceptor that tags the context with a request
// id and logs every call.
func Logging(requestID RequestIDFunc) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = logger.WithAttrs(ctx, "request_id", requestID(ctx))
		start := time.Now()

		resp, err := handler(ctx, req)

		code := status.Code(err)
		args := []any{"method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
		if err != nil && code != codes.NotFound && code != codes.Canceled {
			logger.WarnContext(ctx, "gRPC call failed", append(args, "error", err)...)
		} else {
			logger.DebugContext(ctx, "gRPC call", args...)
		}
		return resp, err
	}
}

// Recovery turns a handler panic into codes.Internal
func Recovery() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if p := recover(); p != nil {
				logger.ErrorContext(ctx, "gRPC handler panicked", "method", info.FullMethod, "panic", p)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
