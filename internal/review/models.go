package review

import (
	"time"

	"voiceloom/internal/boundary"
	"voiceloom/internal/detection"
	"voiceloom/internal/generation"
	"voiceloom/internal/timeline"
)

// Session is one imported episode under review.
type Session struct {
	ID        string
	Title     string
	Duration  float64
	Timeline  timeline.Timeline
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommandRecord is the persisted state of a single voice command: its
// immutable normalized context plus the mutable boundary selection and
// generation outcome.
type CommandRecord struct {
	SessionID      string
	CommandID      string
	Position       int
	Context        detection.CommandContext
	Boundary       boundary.State
	Status         generation.Status
	Response       *generation.Response
	FailureMessage string
	UpdatedAt      time.Time
}

// SessionSummary is the listing row shown by the CLI.
type SessionSummary struct {
	ID        string
	Title     string
	Duration  float64
	Commands  int
	Ready     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
