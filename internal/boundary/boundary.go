package boundary

import (
	"strings"

	"voiceloom/internal/detection"
)

// MinimumSpan is the smallest allowed selection width in seconds. It prevents
// zero-length selections even when a context arrives with degenerate bounds.
const MinimumSpan = 0.25

// State is one command's current selection in snippet-relative seconds.
// Invariant: 0 <= StartRelative <= EndRelative-MinimumSpan <= MaxRelative-MinimumSpan.
type State struct {
	StartRelative float64 `json:"start_relative"`
	EndRelative   float64 `json:"end_relative"`
}

// Clamp reconciles an arbitrary candidate selection with the context bounds.
// Both values are recomputed together, so a candidate that would invert
// start/end is corrected rather than rejected.
func Clamp(ctx detection.CommandContext, start, end float64) State {
	maxStart := ctx.MaxRelative - MinimumSpan
	if maxStart < 0 {
		maxStart = 0
	}
	nextStart := clamp(start, 0, maxStart)
	nextEnd := clamp(end, nextStart+MinimumSpan, ctx.MaxRelative)
	return State{StartRelative: nextStart, EndRelative: nextEnd}
}

// Initial seeds a selection from the context's start and default end.
func Initial(ctx detection.CommandContext) State {
	return Clamp(ctx, ctx.StartRelative(), ctx.DefaultEndRelative)
}

// EndAbs converts a selection end into absolute episode time.
func (s State) EndAbs(ctx detection.CommandContext) float64 {
	return ctx.SnippetStart + s.EndRelative
}

// DerivePromptText recomputes the prompt for a boundary position: the
// space-joined transcript words starting strictly before the absolute
// boundary, falling back to the context's fallback text when no word
// qualifies or the transcript is absent.
func DerivePromptText(ctx detection.CommandContext, endRelative float64) string {
	cutoff := ctx.SnippetStart + endRelative
	if len(ctx.Words) > 0 {
		var b strings.Builder
		for _, w := range ctx.Words {
			if w.Start >= cutoff {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w.Word)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text
		}
	}
	return strings.TrimSpace(ctx.PromptTextFallback)
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
