package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voiceloom/internal/config"
	"voiceloom/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifySessionImported(context.Background(), "Episode 12", 4); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "session imported",
			send: func(svc notifications.Service) error {
				return svc.NotifySessionImported(context.Background(), "Episode 12", 4)
			},
			expectTitle:   "Voiceloom - Session Imported",
			expectMessage: "Imported Episode 12 with 4 voice commands to review",
			expectTags:    "voiceloom,session,imported",
		},
		{
			name: "generation ready",
			send: func(svc notifications.Service) error {
				return svc.NotifyGenerationReady(context.Background(), "Episode 12", "cmd-2")
			},
			expectTitle:   "Voiceloom - Voice Ready",
			expectMessage: "Voice response ready for Episode 12 (cmd-2)",
			expectTags:    "voiceloom,generation,ready",
		},
		{
			name: "generation failed",
			send: func(svc notifications.Service) error {
				return svc.NotifyGenerationFailed(context.Background(), "Episode 12", "cmd-2", "voice model overloaded")
			},
			expectTitle:    "Voiceloom - Generation Failed",
			expectMessage:  "Generation failed for Episode 12 (cmd-2): voice model overloaded",
			expectTags:     "voiceloom,generation,failed",
			expectPriority: "high",
		},
		{
			name: "session complete",
			send: func(svc notifications.Service) error {
				return svc.NotifySessionComplete(context.Background(), "Episode 12", 4)
			},
			expectTitle:    "Voiceloom - Session Complete",
			expectMessage:  "All 4 voice commands resolved for Episode 12",
			expectTags:     "voiceloom,session,complete",
			expectPriority: "high",
		},
		{
			name: "error",
			send: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("disk full"), "import")
			},
			expectTitle:    "Voiceloom - Error",
			expectMessage:  "Error with import: disk full",
			expectTags:     "voiceloom,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Generation = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyGenerationReady(context.Background(), "Episode 12", "cmd-1"); err != nil {
		t.Fatalf("suppressed generation notification errored: %v", err)
	}
	if err := svc.NotifyGenerationFailed(context.Background(), "Episode 12", "cmd-1", "boom"); err != nil {
		t.Fatalf("suppressed failure notification errored: %v", err)
	}
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "generate"); err != nil {
		t.Fatalf("suppressed error notification errored: %v", err)
	}
}
