package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("from context")

	if !strings.Contains(buf.String(), "from context") {
		t.Error("context logger not used")
	}
}

func TestFromContext_Fallback(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext must fall back to the default logger")
	}
}

func TestL_RequestID(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-123")

	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}

	L(ctx).Info("tagged")
	if !strings.Contains(buf.String(), "req-123") {
		t.Errorf("request id missing from output: %q", buf.String())
	}
}
