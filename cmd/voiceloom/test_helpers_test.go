package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voiceloom/internal/testsupport"
)

type cliTestEnv struct {
	configPath string
	voiceURL   string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	server := newVoiceServer(t)
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, base, server.URL)

	return &cliTestEnv{
		configPath: configPath,
		voiceURL:   server.URL,
		baseDir:    base,
	}
}

func newVoiceServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		case "/v1/generate":
			var payload struct {
				CommandID string `json:"command_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"response_text": %q, "audio_url": %q, "voice_id": "host-b"}`,
				"Take for "+payload.CommandID,
				"https://voice.example/"+payload.CommandID+".wav")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func writeTestConfig(t *testing.T, path, baseDir, voiceURL string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
workspace_dir = %q
log_dir = %q

[voice]
base_url = %q
voice_id = "host-a"

[review]
max_regenerations = 3
`, filepath.Join(baseDir, "workspace"), filepath.Join(baseDir, "logs"), voiceURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeDocumentFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "episode.json")
	if err := os.WriteFile(path, testsupport.ImportDocument(), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func importFixture(t *testing.T, env *cliTestEnv) {
	t.Helper()
	docPath := writeDocumentFile(t, env.baseDir)
	if _, _, err := runCLI(t, env, "import", docPath); err != nil {
		t.Fatalf("import fixture: %v", err)
	}
}

func showSessionJSON(t *testing.T, env *cliTestEnv) map[string]any {
	t.Helper()
	out, _, err := runCLI(t, env, "show", "--json")
	if err != nil {
		t.Fatalf("show --json: %v", err)
	}
	var detail map[string]any
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	return detail
}

func currentSessionID(t *testing.T, env *cliTestEnv) string {
	t.Helper()
	detail := showSessionJSON(t, env)
	session, ok := detail["session"].(map[string]any)
	if !ok {
		t.Fatalf("missing 'session' object in show JSON: %v", detail)
	}
	id, _ := session["id"].(string)
	if id == "" {
		t.Fatalf("missing session id in show JSON: %v", session)
	}
	return id
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
