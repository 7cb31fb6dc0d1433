package assembly

import (
	"encoding/json"
	"sort"
	"strings"

	"voiceloom/internal/boundary"
	"voiceloom/internal/detection"
	"voiceloom/internal/generation"
)

// ResolvedCommand is one output row handed to the downstream assembly stage.
// An empty AudioURL means the generator returned no rendered clip and the
// stage must synthesize audio from ResponseText and VoiceID instead.
type ResolvedCommand struct {
	CommandID       string  `json:"command_id"`
	StartAbs        float64 `json:"start_abs"`
	EndAbs          float64 `json:"end_abs"`
	PromptText      string  `json:"prompt_text"`
	ResponseText    string  `json:"response_text"`
	VoiceID         string  `json:"voice_id,omitempty"`
	AudioURL        string  `json:"audio_url,omitempty"`
	RegenerateCount int     `json:"regenerate_count"`
}

// Assemble produces one row per context in original detection order. Each row
// is recomputed from the supplied boundary and response snapshots; nothing is
// cached between calls, so the output always reflects the latest edits. A
// context with no boundary state falls back to its default selection, and a
// response without its own voice id inherits defaultVoiceID.
func Assemble(contexts []detection.CommandContext, boundaries map[string]boundary.State, responses map[string]generation.Response, defaultVoiceID string) []ResolvedCommand {
	ordered := make([]detection.CommandContext, len(contexts))
	copy(ordered, contexts)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	rows := make([]ResolvedCommand, 0, len(ordered))
	for _, ctx := range ordered {
		st, ok := boundaries[ctx.ID]
		if !ok {
			st = boundary.Initial(ctx)
		}
		resp := responses[ctx.ID]
		voiceID := resp.VoiceID
		if voiceID == "" {
			voiceID = defaultVoiceID
		}
		rows = append(rows, ResolvedCommand{
			CommandID:       ctx.ID,
			StartAbs:        ctx.StartAbs,
			EndAbs:          st.EndAbs(ctx),
			PromptText:      boundary.DerivePromptText(ctx, st.EndRelative),
			ResponseText:    resp.Text,
			VoiceID:         voiceID,
			AudioURL:        resp.AudioURL,
			RegenerateCount: resp.RegenerateCount,
		})
	}
	return rows
}

// Complete reports whether the operator may hand the session off: every
// context must carry a non-empty, non-whitespace response text. The predicate
// is evaluated from the snapshots on every call rather than tracked as a flag.
func Complete(contexts []detection.CommandContext, responses map[string]generation.Response) bool {
	for _, ctx := range contexts {
		if !responses[ctx.ID].HasText() {
			return false
		}
	}
	return true
}

// MissingResponses lists the command ids still blocking completion, in
// detection order.
func MissingResponses(contexts []detection.CommandContext, responses map[string]generation.Response) []string {
	ordered := make([]detection.CommandContext, len(contexts))
	copy(ordered, contexts)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var missing []string
	for _, ctx := range ordered {
		if !responses[ctx.ID].HasText() {
			missing = append(missing, ctx.ID)
		}
	}
	return missing
}

// Encode serialises the rows as indented JSON for export.
func Encode(rows []ResolvedCommand) (string, error) {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)) + "\n", nil
}
