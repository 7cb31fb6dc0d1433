// Package config loads, normalizes, and validates voiceloom configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VOICE_API_KEY. The Config type centralizes every knob the CLI needs, so
// workspace directories and voice service credentials are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
