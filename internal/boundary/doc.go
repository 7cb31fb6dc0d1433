// Package boundary is the single source of truth for each command's current
// end-boundary selection.
//
// Word clicks, marker drags, and playhead cuts all funnel through one clamp so
// every entry point converges on the same value. States are handed out by
// value only; an in-flight generation call therefore works from the snapshot
// it captured even if the operator keeps dragging.
//
// Prompt text is always recomputed from the boundary position, never stored,
// so a moved marker can never drift apart from the text sent to generation.
package boundary
