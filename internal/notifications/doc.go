// Package notifications delivers review workflow events to operators through
// ntfy push topics. When no topic is configured every notification is a
// silent no-op, so callers never need to guard their sends.
package notifications
