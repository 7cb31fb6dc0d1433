package assembly_test

import (
	"math"
	"strings"
	"testing"

	"voiceloom/internal/assembly"
	"voiceloom/internal/boundary"
	"voiceloom/internal/detection"
	"voiceloom/internal/generation"
)

func jingleContext() detection.CommandContext {
	return detection.CommandContext{
		ID:                 "c1",
		Index:              0,
		StartAbs:           100,
		SnippetStart:       100,
		SnippetEnd:         130,
		MaxRelative:        30,
		DefaultEndRelative: 6,
		Words: []detection.Word{
			{Word: "insert", Start: 100, End: 100.5},
			{Word: "jingle", Start: 100.5, End: 101.2},
		},
		PromptTextFallback: "insert jingle",
	}
}

func promoContext() detection.CommandContext {
	return detection.CommandContext{
		ID:                 "c2",
		Index:              1,
		StartAbs:           400,
		SnippetStart:       395,
		SnippetEnd:         425,
		MaxRelative:        30,
		DefaultEndRelative: 11,
		PromptTextFallback: "run the promo",
	}
}

func TestAssembleKeepsDetectionOrder(t *testing.T) {
	c1, c2 := jingleContext(), promoContext()
	boundaries := map[string]boundary.State{
		"c1": {StartRelative: 0, EndRelative: 2},
	}
	responses := map[string]generation.Response{
		"c1": {CommandID: "c1", Text: "Here is the jingle.", AudioURL: "https://cdn/c1.mp3", RegenerateCount: 1},
	}

	// Contexts arrive shuffled; rows must come back in detection order.
	rows := assembly.Assemble([]detection.CommandContext{c2, c1}, boundaries, responses, "host-a")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].CommandID != "c1" || rows[1].CommandID != "c2" {
		t.Fatalf("rows out of detection order: %s, %s", rows[0].CommandID, rows[1].CommandID)
	}

	first := rows[0]
	if math.Abs(first.EndAbs-102) > 1e-9 {
		t.Fatalf("EndAbs = %v, want snippetStart+endRelative = 102", first.EndAbs)
	}
	if first.PromptText != "insert jingle" {
		t.Fatalf("PromptText = %q", first.PromptText)
	}
	if first.ResponseText != "Here is the jingle." || first.AudioURL != "https://cdn/c1.mp3" {
		t.Fatalf("response fields not carried: %+v", first)
	}
	if first.VoiceID != "host-a" {
		t.Fatalf("VoiceID should inherit the session default, got %q", first.VoiceID)
	}
	if first.RegenerateCount != 1 {
		t.Fatalf("RegenerateCount = %d", first.RegenerateCount)
	}

	// No boundary state for c2: the default selection applies.
	second := rows[1]
	if math.Abs(second.EndAbs-406) > 1e-9 {
		t.Fatalf("default EndAbs = %v, want 406", second.EndAbs)
	}
	if second.PromptText != "run the promo" {
		t.Fatalf("fallback PromptText = %q", second.PromptText)
	}
	if second.ResponseText != "" || second.AudioURL != "" {
		t.Fatalf("missing response should leave fields empty: %+v", second)
	}
}

func TestAssembleRederivesFromSnapshots(t *testing.T) {
	c1 := jingleContext()
	responses := map[string]generation.Response{"c1": {CommandID: "c1", Text: "take"}}

	tight := assembly.Assemble([]detection.CommandContext{c1}, map[string]boundary.State{
		"c1": {StartRelative: 0, EndRelative: 0.4},
	}, responses, "")
	if tight[0].PromptText != "insert" {
		t.Fatalf("prompt at 0.4 = %q, want only the first word", tight[0].PromptText)
	}

	wide := assembly.Assemble([]detection.CommandContext{c1}, map[string]boundary.State{
		"c1": {StartRelative: 0, EndRelative: 2},
	}, responses, "")
	if wide[0].PromptText != "insert jingle" {
		t.Fatalf("prompt at 2.0 = %q", wide[0].PromptText)
	}
	if math.Abs(wide[0].EndAbs-tight[0].EndAbs) < 1e-9 {
		t.Fatal("moving the boundary must move EndAbs")
	}
}

func TestAssembleRespectsResponseVoice(t *testing.T) {
	c1 := jingleContext()
	responses := map[string]generation.Response{
		"c1": {CommandID: "c1", Text: "take", VoiceID: "guest-b"},
	}
	rows := assembly.Assemble([]detection.CommandContext{c1}, nil, responses, "host-a")
	if rows[0].VoiceID != "guest-b" {
		t.Fatalf("response voice must win over the default, got %q", rows[0].VoiceID)
	}
}

func TestCompletionGate(t *testing.T) {
	contexts := []detection.CommandContext{
		{ID: "c1", Index: 0}, {ID: "c2", Index: 1}, {ID: "c3", Index: 2},
	}
	responses := map[string]generation.Response{}

	if assembly.Complete(contexts, responses) {
		t.Fatal("empty responses should not be complete")
	}
	responses["c1"] = generation.Response{CommandID: "c1", Text: "one"}
	responses["c2"] = generation.Response{CommandID: "c2", Text: "two"}
	if assembly.Complete(contexts, responses) {
		t.Fatal("two of three responses should not be complete")
	}
	if got := assembly.MissingResponses(contexts, responses); len(got) != 1 || got[0] != "c3" {
		t.Fatalf("missing = %v, want [c3]", got)
	}

	responses["c3"] = generation.Response{CommandID: "c3", Text: "   "}
	if assembly.Complete(contexts, responses) {
		t.Fatal("whitespace-only text must not satisfy the gate")
	}

	responses["c3"] = generation.Response{CommandID: "c3", Text: "three"}
	if !assembly.Complete(contexts, responses) {
		t.Fatal("all three responses present should be complete")
	}

	// Clearing any one response flips completion back.
	delete(responses, "c2")
	if assembly.Complete(contexts, responses) {
		t.Fatal("cleared response must reopen the gate")
	}
}

func TestEncode(t *testing.T) {
	rows := []assembly.ResolvedCommand{{CommandID: "c1", StartAbs: 10, EndAbs: 14, PromptText: "go", ResponseText: "done"}}
	out, err := assembly.Encode(rows)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(out, `"command_id": "c1"`) || !strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected encoding:\n%s", out)
	}
}
