package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status represents a command's generation lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusReady,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus validates a raw string against the known statuses.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[status]; !ok {
		return "", fmt.Errorf("unknown generation status %q", value)
	}
	return status, nil
}

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Dispatchable reports whether a command in this state may start a new
// generation call. Failed is retryable, not terminal.
func (s Status) Dispatchable() bool {
	switch s {
	case StatusPending, StatusFailed, StatusReady:
		return true
	default:
		return false
	}
}

// Response is the recorded output of one successful generation call.
// RegenerateCount starts at zero and increments only on explicit
// regeneration.
type Response struct {
	CommandID       string          `json:"command_id"`
	Text            string          `json:"text"`
	AudioURL        string          `json:"audio_url,omitempty"`
	VoiceID         string          `json:"voice_id,omitempty"`
	RegenerateCount int             `json:"regenerate_count"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// HasText reports whether the response carries usable, non-whitespace text.
func (r Response) HasText() bool {
	return strings.TrimSpace(r.Text) != ""
}
