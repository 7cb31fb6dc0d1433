package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestPreflightAllChecksPass(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "preflight")
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	for _, name := range []string{
		"Workspace directory",
		"Log directory",
		"Disk space",
		"Session database",
		"Voice service",
		"Notifications",
		"Workspace usage",
	} {
		requireContains(t, out, name)
	}
	requireContains(t, out, "API reachable")
	requireContains(t, out, "Disabled")
	requireContains(t, out, "All checks passed")
}

func TestPreflightFailsWhenVoiceUnreachable(t *testing.T) {
	server := newVoiceServer(t)
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, base, server.URL)
	server.Close()
	env := &cliTestEnv{configPath: configPath, voiceURL: server.URL, baseDir: base}

	out, _, err := runCLI(t, env, "preflight")
	if err == nil || !strings.Contains(err.Error(), "preflight found problems") {
		t.Fatalf("expected preflight failure, got %v", err)
	}
	requireContains(t, out, "Voice service")
}
