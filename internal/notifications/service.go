package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voiceloom/internal/config"
)

const userAgent = "Voiceloom/0.1.0"

// Service defines the notification surface exposed to the review workflow.
type Service interface {
	NotifySessionImported(ctx context.Context, title string, commands int) error
	NotifyGenerationReady(ctx context.Context, sessionTitle, commandID string) error
	NotifyGenerationFailed(ctx context.Context, sessionTitle, commandID, reason string) error
	NotifySessionComplete(ctx context.Context, title string, commands int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		generation: cfg.Notifications.Generation,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	generation bool
	errors     bool
}

func (n *ntfyService) NotifySessionImported(ctx context.Context, title string, commands int) error {
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Voiceloom - Session Imported",
		message: fmt.Sprintf("Imported %s with %d voice commands to review", title, commands),
		tags:    []string{"voiceloom", "session", "imported"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyGenerationReady(ctx context.Context, sessionTitle, commandID string) error {
	if !n.generation {
		return nil
	}
	data := payload{
		title:   "Voiceloom - Voice Ready",
		message: fmt.Sprintf("Voice response ready for %s (%s)", strings.TrimSpace(sessionTitle), commandID),
		tags:    []string{"voiceloom", "generation", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyGenerationFailed(ctx context.Context, sessionTitle, commandID, reason string) error {
	if !n.generation {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Voiceloom - Generation Failed",
		message:  fmt.Sprintf("Generation failed for %s (%s): %s", strings.TrimSpace(sessionTitle), commandID, reason),
		tags:     []string{"voiceloom", "generation", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionComplete(ctx context.Context, title string, commands int) error {
	data := payload{
		title:    "Voiceloom - Session Complete",
		message:  fmt.Sprintf("All %d voice commands resolved for %s", commands, strings.TrimSpace(title)),
		tags:     []string{"voiceloom", "session", "complete"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Voiceloom - Error",
		message:  builder.String(),
		tags:     []string{"voiceloom", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Voiceloom - Test",
		message:  "Notification system test",
		tags:     []string{"voiceloom", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySessionImported(context.Context, string, int) error             { return nil }
func (noopService) NotifyGenerationReady(context.Context, string, string) error          { return nil }
func (noopService) NotifyGenerationFailed(context.Context, string, string, string) error { return nil }
func (noopService) NotifySessionComplete(context.Context, string, int) error             { return nil }
func (noopService) NotifyError(context.Context, error, string) error                     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
