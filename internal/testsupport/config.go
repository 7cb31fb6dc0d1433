package testsupport

import (
	"path/filepath"
	"testing"

	"voiceloom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Voice.BaseURL = "http://127.0.0.1:0"
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithVoiceService points the voice client at the given base URL, typically
// an httptest server.
func WithVoiceService(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Voice.BaseURL = baseURL
	}
}

// WithNtfyTopic sets the ntfy topic URL on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithMaxRegenerations overrides the regeneration quota on the test config.
func WithMaxRegenerations(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Review.MaxRegenerations = limit
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkspaceDir)
}
