// Package notifications delivers run events via ntfy.
//
// NewService publishes to the topic URL configured in config.toml (or
// NTFY_TOPIC) and degrades to a no-op when no topic is set. Per-event toggles
// in the [notifications] section suppress individual events without
// disabling the transport.
package notifications
