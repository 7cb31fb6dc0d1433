package detection

import "math"

// Word is one transcript token positioned in absolute episode time.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// CommandContext is the canonical, immutable description of one detected
// voice-trigger command. All times are in seconds; MaxRelative and
// DefaultEndRelative are relative to SnippetStart.
type CommandContext struct {
	ID                 string  `json:"id"`
	Index              int     `json:"index"`
	StartAbs           float64 `json:"start_abs"`
	SnippetStart       float64 `json:"snippet_start"`
	SnippetEnd         float64 `json:"snippet_end"`
	MaxRelative        float64 `json:"max_relative"`
	DefaultEndRelative float64 `json:"default_end_relative"`
	Words              []Word  `json:"words,omitempty"`
	PromptTextFallback string  `json:"prompt_text_fallback,omitempty"`
}

// StartRelative converts the trigger time into snippet-relative coordinates.
func (c CommandContext) StartRelative() float64 {
	return math.Max(0, c.StartAbs-c.SnippetStart)
}
