package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voiceloom/internal/generation"
)

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings required to talk to the voice service.
type Config struct {
	BaseURL        string
	APIKey         string
	VoiceID        string
	TimeoutSeconds int
}

// Client wraps the voice generation API. It satisfies generation.Generator.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a voice service client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			VoiceID:        strings.TrimSpace(cfg.VoiceID),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client
}

// APIError is a non-2xx response from the voice service. The operator-facing
// message lives in detail.message when the service returns structured
// validation errors, or in the top-level message field otherwise.
type APIError struct {
	StatusCode int
	Detail     struct {
		Message string `json:"message"`
	} `json:"detail"`
	Message string `json:"message"`
	Body    string `json:"-"`
}

func (e *APIError) Error() string {
	if msg := e.OperatorMessage(); msg != "" {
		return fmt.Sprintf("voice generate: http %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("voice generate: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// OperatorMessage returns the displayable failure reason, preferring the
// structured detail message. Empty when the body carried neither form.
func (e *APIError) OperatorMessage() string {
	if msg := strings.TrimSpace(e.Detail.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Message)
}

type generateRequest struct {
	CommandID    string  `json:"command_id"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	PromptText   string  `json:"prompt_text"`
	VoiceID      string  `json:"voice_id,omitempty"`
	Regenerate   bool    `json:"regenerate"`
}

type generateResponse struct {
	ResponseText string `json:"response_text"`
	Text         string `json:"text"`
	AudioURL     string `json:"audio_url"`
	CommandID    string `json:"command_id"`
	VoiceID      string `json:"voice_id"`
}

// Generate renders one voice response for the supplied command snapshot.
func (c *Client) Generate(ctx context.Context, req generation.Request) (generation.Result, error) {
	var empty generation.Result
	if c.cfg.BaseURL == "" {
		return empty, errors.New("voice generate: base url required")
	}
	payload := generateRequest{
		CommandID:    req.Context.ID,
		StartSeconds: req.StartSeconds,
		EndSeconds:   req.EndSeconds,
		PromptText:   req.PromptText,
		VoiceID:      c.cfg.VoiceID,
		Regenerate:   req.Regenerate,
	}
	body, err := c.post(ctx, "/v1/generate", payload)
	if err != nil {
		return empty, err
	}
	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return empty, fmt.Errorf("voice generate: decode response: %w", err)
	}
	text := strings.TrimSpace(decoded.ResponseText)
	if text == "" {
		text = strings.TrimSpace(decoded.Text)
	}
	if text == "" {
		return empty, errors.New("voice generate: empty response text")
	}
	voiceID := strings.TrimSpace(decoded.VoiceID)
	if voiceID == "" {
		voiceID = c.cfg.VoiceID
	}
	return generation.Result{
		Text:     text,
		AudioURL: strings.TrimSpace(decoded.AudioURL),
		VoiceID:  voiceID,
		Raw:      body,
	}, nil
}

// HealthCheck verifies the service endpoint is reachable and accepting the
// configured credentials.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.BaseURL == "" {
		return errors.New("voice health: base url required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "/healthz")
	if err != nil {
		return fmt.Errorf("voice health: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("voice health: request: %w", err)
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("voice health: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("voice health: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return nil, fmt.Errorf("voice generate: build url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("voice generate: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("voice generate: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice generate: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voice generate: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		// Best effort: the body may not be JSON at all.
		_ = json.Unmarshal(body, apiErr)
		return nil, apiErr
	}
	return body, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}
