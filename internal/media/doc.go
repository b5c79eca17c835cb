// Package media combines the generated narration and silent footage into the
// final video with ffmpeg.
//
// The Muxer stream-copies the video track, re-encodes the audio track with
// the configured codec and stops at the shorter of the two inputs. Output is
// written to a hidden temp file beside the destination and renamed into place
// only when ffmpeg exits cleanly, so a failed mux never leaves a truncated
// final video behind.
//
// Subpackage ffprobe inspects the result.
package media
