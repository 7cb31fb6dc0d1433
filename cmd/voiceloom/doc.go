// Package main hosts the voiceloom CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into review
// session operations: importing detector documents, editing the segment
// timeline, adjusting command boundaries, driving voice generation, and
// assembling the final result. It centralizes configuration resolution,
// workspace locking, and logger setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
