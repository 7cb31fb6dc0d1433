// Package generation drives the per-command voice generation state machine.
//
// Each command moves pending -> processing -> ready, with failed reachable
// from processing and treated as retryable rather than terminal. One command
// at a time may be processing across the whole session; competing requests
// are refused outright, never queued, because the workflow is operator-paced.
//
// The coordinator reads boundary snapshots at dispatch time, so edits made
// while a call is in flight never alter the parameters already sent.
// Regeneration draws down a per-command quota, checked before any network
// call is made.
package generation
