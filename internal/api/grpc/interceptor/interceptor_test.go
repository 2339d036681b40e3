package interceptor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestRecovery(t *testing.T) {
	_, err := Recovery()(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("nil map write")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestLogging(t *testing.T) {
	var seen string
	requestID := func(context.Context) string { return "req-1" }

	resp, err := Logging(requestID)(context.Background(), "in", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = req.(string)
		return "out", status.Error(codes.Unavailable, "down")
	})
	assert.Equal(t, "in", seen)
	assert.Equal(t, "out", resp)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}
