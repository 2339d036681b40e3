package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { Initialize("info", "text") })

	ctx := WithAttrs(context.Background(), "request_id", "abc-123")
	ctx = WithAttrs(ctx, "user_id", int64(7))
	InfoContext(ctx, "borrowed")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"abc-123"`)
	assert.Contains(t, out, `"user_id":7`)
	assert.Contains(t, out, `"msg":"borrowed"`)
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "warn", "text")
	t.Cleanup(func() { Initialize("info", "text") })

	Info("hidden")
	Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestExitMethodWithError(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "text")
	t.Cleanup(func() { Initialize("info", "text") })

	ExitMethodWithError(context.Background(), "Borrow", errors.New("not available"), true)
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	ExitMethodWithError(context.Background(), "Borrow", errors.New("connection reset"), false)
	assert.Contains(t, buf.String(), "level=ERROR")
}
