// Package config loads, normalizes, and validates reelsmith configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// OPENAI_API_KEY and REPLICATE_API_KEY. The Config type centralizes every knob
// the pipeline and CLI need: the output directory tree, the chat-completion
// and prediction service settings, the speech and footage model parameters,
// and the ffmpeg invocation.
//
// Directory creation is not a side effect of loading. Callers invoke
// EnsureDirectories explicitly once they are ready to write artifacts.
package config
