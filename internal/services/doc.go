// Package services defines shared utilities consumed by the pipeline stages
// and the remote service clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so the orchestrator and
//     CLI can classify failures (missing credentials, external service,
//     generation failure, download, mux, timeout).
//   - HTTPError, which carries the status code and raw body of a rejected
//     remote call.
//
// Subpackages hold the concrete clients: scriptgen for chat completion and
// prediction for the asynchronous prediction platform.
package services
