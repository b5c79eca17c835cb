// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: runs ffprobe with an injectable command runner
//
// Helper methods on Result report stream counts, duration and size, and
// Summary checks that a muxed file carries one video and one audio track.
package ffprobe
