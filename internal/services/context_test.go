package services_test

import (
	"context"
	"testing"

	"voiceloom/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "sess-42")
	ctx = services.WithCommandID(ctx, "cmd-9")
	ctx = services.WithOperation(ctx, "generate")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "sess-42" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if id, ok := services.CommandIDFromContext(ctx); !ok || id != "cmd-9" {
		t.Fatalf("unexpected command id: %v %v", id, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "generate" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
	ctx = services.WithSessionID(ctx, "")
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session id value")
	}
}
