// Package voice wraps the external AI voice generation API. The client is a
// thin single-shot HTTP adapter: each call resolves exactly once, success or
// failure, and retry policy is left to the operator driving the review
// session.
package voice
