package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"voiceloom/internal/config"
	"voiceloom/internal/logging"
	"voiceloom/internal/review"
)

type commandContext struct {
	configFlag  *string
	sessionFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, sessionFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		sessionFlag: sessionFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) sessionID() string {
	if c.sessionFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.sessionFlag)
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "voiceloom.log")},
	})
}

// withManager opens the store, takes the workspace lock, and hands a ready
// manager to fn. When openSession is set the session named by --session (or
// the latest import) is loaded first.
func (c *commandContext) withManager(cmd *cobra.Command, openSession bool, fn func(context.Context, *review.Manager) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.newLogger(cfg)
	if err != nil {
		return err
	}
	store, err := review.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mgr := review.NewManager(cfg, store, logger)
	if err := mgr.AcquireLock(); err != nil {
		return err
	}
	defer mgr.ReleaseLock()

	if openSession {
		if _, err := mgr.OpenSession(cmd.Context(), c.sessionID()); err != nil {
			return err
		}
	}
	return fn(cmd.Context(), mgr)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
