// Package review owns the persistent review session workflow. A session is
// imported from an upstream detection document, holds one segment timeline
// plus the per-command boundary and generation state, and survives process
// restarts through a SQLite store in the workspace directory.
//
// The Manager is the single entry point for the CLI: it loads a session,
// hydrates the in-memory boundary synchronizer and generation coordinator,
// and persists every state change back to the store as it happens.
package review
