// Package preflight provides readiness checks for the services, binaries and
// paths reelsmith depends on.
//
// The pipeline command runs the local checks (credentials, ffmpeg, output
// directories) before spending money on remote predictions. `reelsmith
// doctor` additionally probes both remote APIs with a single cheap request
// each.
package preflight
