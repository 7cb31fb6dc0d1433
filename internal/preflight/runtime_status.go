package preflight

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"

	"voiceloom/internal/config"
	"voiceloom/internal/logging"
)

// CheckVoiceFromConfig evaluates voice service status from config alone,
// without any network call.
func CheckVoiceFromConfig(cfg *config.Config) Result {
	const name = "Voice service"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Voice.BaseURL) == "" {
		return Result{Name: name, Detail: "Missing base url"}
	}
	return Result{Name: name, Passed: true, Detail: cfg.Voice.BaseURL}
}

// CheckNtfyFromConfig evaluates notification status from config alone.
// Notifications are optional, so an empty topic passes as disabled. Use the
// CLI test-notification command to verify delivery end to end.
func CheckNtfyFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}

// WorkspaceUsage reports the current filesystem headroom snapshot for the
// workspace directory.
type WorkspaceUsage struct {
	Path       string
	TotalBytes uint64
	FreeBytes  uint64
}

// ProbeWorkspace samples filesystem usage for the given path. The second
// return value is false when the path cannot be measured.
func ProbeWorkspace(path string) (WorkspaceUsage, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return WorkspaceUsage{}, false
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return WorkspaceUsage{Path: path}, false
	}
	blockSize := uint64(stat.Bsize)
	return WorkspaceUsage{
		Path:       path,
		TotalBytes: stat.Blocks * blockSize,
		FreeBytes:  stat.Bavail * blockSize,
	}, true
}

// Detail renders a display-friendly summary for status UIs.
func (u WorkspaceUsage) Detail() string {
	if u.TotalBytes == 0 {
		return "Usage unknown"
	}
	return fmt.Sprintf("%s free of %s on %s",
		logging.FormatBytes(int64(u.FreeBytes)),
		logging.FormatBytes(int64(u.TotalBytes)),
		u.Path)
}
