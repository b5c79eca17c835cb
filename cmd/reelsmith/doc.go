// Package main hosts the reelsmith CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration (config file, .env file and
// per-invocation overrides) once per process and hands it to the commands:
// run drives the narrated-video pipeline, history lists past runs from the
// SQLite store, doctor reports preflight results, and config scaffolds or
// validates the TOML file.
//
// Keep this package thin. New behaviour belongs in the internal packages
// first and is surfaced here through a command or flag.
package main
