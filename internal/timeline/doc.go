// Package timeline owns the ordered, gap-free segment decomposition of an
// episode.
//
// A Timeline is an immutable value: every mutating operation returns a fresh
// Timeline and leaves the receiver untouched, so callers can diff or undo by
// holding on to earlier values. Operations whose preconditions are unmet
// return the input unchanged; the matching Can* predicates let callers drive
// affordances without duplicating the guards.
//
// The central invariant is that segments always tile [0, duration]: the first
// segment starts at zero, the last ends at the episode duration, and each
// boundary is shared exactly by its neighbors. Split, ad-break insertion, and
// removal all preserve this by construction.
package timeline
