package services_test

import (
	"errors"
	"strings"
	"testing"

	"voiceloom/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "voice", "generate", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"voice", "generate", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "review", "persist", "write failed", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestRetryableClassification(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "boundary", "drag", "invalid window", nil)
	if services.Retryable(validationErr) {
		t.Fatalf("validation errors should not be retryable: %v", validationErr)
	}

	configErr := services.Wrap(services.ErrConfiguration, "voice", "client", "missing base url", nil)
	if services.Retryable(configErr) {
		t.Fatalf("configuration errors should not be retryable: %v", configErr)
	}

	transientErr := services.Wrap(services.ErrTransient, "voice", "generate", "connection reset", errors.New("io"))
	if !services.Retryable(transientErr) {
		t.Fatalf("transient errors should be retryable: %v", transientErr)
	}

	timeoutErr := services.Wrap(services.ErrTimeout, "voice", "generate", "deadline exceeded", nil)
	if !services.Retryable(timeoutErr) {
		t.Fatalf("timeouts should be retryable: %v", timeoutErr)
	}

	if services.Retryable(nil) {
		t.Fatal("nil error should not be retryable")
	}
}
