// Package assembly flattens a finished review session into the ordered list
// of resolved commands consumed by the downstream audio rendering stage. It
// re-derives every row from boundary and response snapshots so the output can
// never drift from the operator's latest edits.
package assembly
