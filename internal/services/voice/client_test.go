package voice_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voiceloom/internal/detection"
	"voiceloom/internal/generation"
	"voiceloom/internal/services/voice"
)

func makeRequest() generation.Request {
	return generation.Request{
		Context:      detection.CommandContext{ID: "cmd-7", StartAbs: 412.5, SnippetStart: 410},
		StartSeconds: 412.5,
		EndSeconds:   418,
		PromptText:   "insert the jingle here",
		Regenerate:   true,
	}
}

func TestGenerateSendsBoundaryPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/generate" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("authorization = %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["command_id"] != "cmd-7" || payload["prompt_text"] != "insert the jingle here" {
			t.Fatalf("unexpected payload: %v", payload)
		}
		if payload["start_seconds"].(float64) != 412.5 || payload["end_seconds"].(float64) != 418.0 {
			t.Fatalf("boundary not carried: %v", payload)
		}
		if payload["voice_id"] != "host-a" || payload["regenerate"] != true {
			t.Fatalf("voice/regenerate not carried: %v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response_text": "Here comes the jingle!",
			"audio_url":     "https://cdn.example/c7.mp3",
			"command_id":    "cmd-7",
			"voice_id":      "host-a",
		})
	}))
	defer server.Close()

	client := voice.NewClient(voice.Config{BaseURL: server.URL, APIKey: "secret", VoiceID: "host-a"})
	result, err := client.Generate(context.Background(), makeRequest())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if result.Text != "Here comes the jingle!" {
		t.Fatalf("text = %q", result.Text)
	}
	if result.AudioURL != "https://cdn.example/c7.mp3" || result.VoiceID != "host-a" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Raw) == 0 {
		t.Fatal("raw payload should be retained")
	}
}

func TestGenerateAcceptsLegacyTextField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"text": "legacy shape"})
	}))
	defer server.Close()

	client := voice.NewClient(voice.Config{BaseURL: server.URL, VoiceID: "host-a"})
	result, err := client.Generate(context.Background(), makeRequest())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if result.Text != "legacy shape" {
		t.Fatalf("text = %q", result.Text)
	}
	if result.VoiceID != "host-a" {
		t.Fatalf("voice id should default from config, got %q", result.VoiceID)
	}
}

func TestGenerateEmptyTextFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response_text": "   "})
	}))
	defer server.Close()

	client := voice.NewClient(voice.Config{BaseURL: server.URL})
	if _, err := client.Generate(context.Background(), makeRequest()); err == nil {
		t.Fatal("expected empty response text to fail")
	}
}

func TestGenerateErrorDetailMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"detail":  map[string]any{"message": "Prompt too short to voice."},
			"message": "validation failed",
		})
	}))
	defer server.Close()

	client := voice.NewClient(voice.Config{BaseURL: server.URL})
	_, err := client.Generate(context.Background(), makeRequest())
	var apiErr *voice.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", apiErr.StatusCode)
	}
	if got := apiErr.OperatorMessage(); got != "Prompt too short to voice." {
		t.Fatalf("operator message = %q, want the structured detail", got)
	}
}

func TestGenerateErrorPlainMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "voice model overloaded"})
	}))
	defer server.Close()

	client := voice.NewClient(voice.Config{BaseURL: server.URL})
	_, err := client.Generate(context.Background(), makeRequest())
	var apiErr *voice.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if got := apiErr.OperatorMessage(); got != "voice model overloaded" {
		t.Fatalf("operator message = %q", got)
	}
}

func TestGenerateErrorOpaqueBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	client := voice.NewClient(voice.Config{BaseURL: server.URL})
	_, err := client.Generate(context.Background(), makeRequest())
	var apiErr *voice.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.OperatorMessage() != "" {
		t.Fatalf("opaque body must not invent a message, got %q", apiErr.OperatorMessage())
	}
	if !strings.Contains(apiErr.Error(), "http 502") {
		t.Fatalf("error should carry the status: %v", apiErr)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := voice.NewClient(voice.Config{BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := voice.NewClient(voice.Config{BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}
