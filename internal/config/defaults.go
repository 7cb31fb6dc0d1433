package config

const (
	defaultWorkspaceDir         = "~/.local/share/voiceloom"
	defaultLogDir               = "~/.local/share/voiceloom/logs"
	defaultVoiceBaseURL         = "http://127.0.0.1:8787"
	defaultVoiceTimeoutSeconds  = 120
	defaultMaxRegenerations     = 3
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
		},
		Voice: Voice{
			BaseURL:        defaultVoiceBaseURL,
			TimeoutSeconds: defaultVoiceTimeoutSeconds,
		},
		Review: Review{
			MaxRegenerations: defaultMaxRegenerations,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Generation:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
