package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVoice(); err != nil {
		return err
	}
	if err := c.validateReview(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVoice() error {
	base := strings.TrimSpace(c.Voice.BaseURL)
	if base == "" {
		return errors.New("voice.base_url must be set")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("voice.base_url is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("voice.base_url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("voice.base_url must include a host")
	}
	if c.Voice.TimeoutSeconds <= 0 {
		return errors.New("voice.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateReview() error {
	if c.Review.MaxRegenerations < 1 {
		return errors.New("review.max_regenerations must be >= 1")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
