package grpc

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
)

const requestIDKey = "x-request-id"

// requestIDFromContext returns the caller supplied request id from the
// incoming metadata, or a new one.
func requestIDFromContext(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(requestIDKey); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return uuid.NewString()
}
