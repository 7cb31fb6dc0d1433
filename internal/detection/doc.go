// Package detection normalizes heterogeneous voice-command detection payloads
// into canonical CommandContext values.
//
// Upstream detectors disagree on field names (the absolute trigger time alone
// has five known spellings), so every fallback list lives here in one ordered
// table instead of ad hoc probing scattered across components. Normalization
// performs no I/O and never fails: missing or degenerate fields are absorbed
// by defaulting and clamping, and downstream boundary handling enforces the
// minimum selection span.
package detection
