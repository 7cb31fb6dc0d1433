// Package services defines shared utilities consumed by the review workflow
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, command IDs, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so failures classify
//     consistently (operator mistakes vs transient service trouble).
//
// Use these helpers when wiring new workflow logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
