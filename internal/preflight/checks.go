package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"voiceloom/internal/config"
	"voiceloom/internal/logging"
	"voiceloom/internal/review"
	"voiceloom/internal/services/voice"
)

// minFreeBytes is the free-space floor for the workspace filesystem.
const minFreeBytes = 100 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the workspace filesystem has headroom for the
// session database and logs.
func CheckDiskSpace(path string) Result {
	const name = "Disk space"

	usage, ok := ProbeWorkspace(path)
	if !ok {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs failed)", path)}
	}
	if usage.FreeBytes < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s free on %s (need at least %s)",
			logging.FormatBytes(int64(usage.FreeBytes)), path, logging.FormatBytes(minFreeBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free on %s",
		logging.FormatBytes(int64(usage.FreeBytes)), path)}
}

// CheckDatabase verifies the session database opens and its schema matches.
func CheckDatabase(cfg *config.Config) Result {
	const name = "Session database"

	store, err := review.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema ok)", store.Path())}
}

// CheckVoiceService verifies that the voice generation API is reachable.
// It uses a 5-second timeout and a single attempt.
func CheckVoiceService(ctx context.Context, voiceCfg config.Voice) Result {
	const name = "Voice service"

	if strings.TrimSpace(voiceCfg.BaseURL) == "" {
		return Result{Name: name, Detail: "missing base url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := voice.NewClient(voice.Config{
		BaseURL:        voiceCfg.BaseURL,
		APIKey:         voiceCfg.APIKey,
		VoiceID:        voiceCfg.VoiceID,
		TimeoutSeconds: 5,
	})
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeVoiceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// summarizeVoiceError produces a human-readable summary for voice health
// check failures.
func summarizeVoiceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (voice API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (voice API unreachable)"
	}
	return err.Error()
}
