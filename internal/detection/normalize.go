package detection

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// snippetWindowSeconds caps the review window presented to the operator.
	snippetWindowSeconds = 30.0
	// boundaryFloorSeconds keeps at least this much room past the trigger so
	// a selection is always possible.
	boundaryFloorSeconds = 0.5
	// defaultEndOffsetSeconds seeds the boundary when the detector offers no
	// end hint.
	defaultEndOffsetSeconds = 6.0
)

// startFields is the ordered field-name fallback for the absolute trigger
// time. The order is part of the compatibility contract with older detector
// payloads and must not be reordered.
var startFields = []string{"start_s", "absolute_start_s", "command_start_s", "trigger_time_s", "time_s"}

var (
	idFields           = []string{"id", "command_id"}
	snippetStartFields = []string{"snippet_start_s", "window_start_s"}
	snippetEndFields   = []string{"snippet_end_s", "window_end_s"}
	durationHintFields = []string{"snippet_duration_s", "duration_s"}
	maxDurationFields  = []string{"max_duration_s", "max_len_s"}
	defaultEndFields   = []string{"default_end_s", "suggested_end_s"}
	promptFields       = []string{"prompt_text", "transcript", "text"}
)

// RawDetection is one loosely-typed record from an upstream detector.
type RawDetection map[string]any

// DecodeDetections parses a JSON array of raw detection records.
func DecodeDetections(data []byte) ([]RawDetection, error) {
	var raws []RawDetection
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse detections: %w", err)
	}
	return raws, nil
}

// Normalize converts raw detection records into canonical contexts,
// preserving input order. It never fails; missing fields default and
// degenerate windows are widened just enough to admit a boundary choice.
func Normalize(raws []RawDetection) []CommandContext {
	contexts := make([]CommandContext, 0, len(raws))
	for i, raw := range raws {
		contexts = append(contexts, normalizeOne(i, raw))
	}
	return contexts
}

func normalizeOne(index int, raw RawDetection) CommandContext {
	ctx := CommandContext{Index: index}

	ctx.ID = stringField(raw, idFields...)
	if ctx.ID == "" {
		ctx.ID = uuid.NewString()
	}

	ctx.StartAbs, _ = numberField(raw, startFields...)

	if v, ok := numberField(raw, snippetStartFields...); ok {
		ctx.SnippetStart = v
	} else {
		ctx.SnippetStart = ctx.StartAbs
	}

	if v, ok := numberField(raw, snippetEndFields...); ok && v > ctx.SnippetStart {
		ctx.SnippetEnd = v
	} else {
		window := snippetWindowSeconds
		if hint, ok := numberField(raw, durationHintFields...); ok && hint > 0 && hint < window {
			window = hint
		}
		ctx.SnippetEnd = ctx.SnippetStart + window
	}

	startRel := ctx.StartRelative()

	maxRel := ctx.SnippetEnd - ctx.SnippetStart
	if maxRel > snippetWindowSeconds {
		maxRel = snippetWindowSeconds
	}
	if hint, ok := numberField(raw, maxDurationFields...); ok && hint > 0 && hint < maxRel {
		maxRel = hint
	}
	if floor := startRel + boundaryFloorSeconds; maxRel < floor {
		maxRel = floor
	}
	ctx.MaxRelative = maxRel

	if hint, ok := numberField(raw, defaultEndFields...); ok {
		ctx.DefaultEndRelative = clamp(hint, startRel+boundaryFloorSeconds, maxRel)
	} else {
		ctx.DefaultEndRelative = math.Min(maxRel, startRel+defaultEndOffsetSeconds)
	}

	ctx.Words = wordsField(raw["words"])
	ctx.PromptTextFallback = stringField(raw, promptFields...)
	return ctx
}

func numberField(raw RawDetection, keys ...string) (float64, bool) {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if f, ok := coerceNumber(value); ok {
			return f, true
		}
	}
	return 0, false
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func stringField(raw RawDetection, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func wordsField(value any) []Word {
	if typed, ok := value.([]Word); ok {
		if len(typed) == 0 {
			return nil
		}
		out := make([]Word, len(typed))
		copy(out, typed)
		return out
	}
	entries, ok := value.([]any)
	if !ok || len(entries) == 0 {
		return nil
	}
	words := make([]Word, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		token, _ := m["word"].(string)
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		start, okStart := coerceNumber(m["start"])
		if !okStart {
			continue
		}
		end, okEnd := coerceNumber(m["end"])
		if !okEnd || end < start {
			end = start
		}
		words = append(words, Word{Word: token, Start: start, End: end})
	}
	if len(words) == 0 {
		return nil
	}
	return words
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
