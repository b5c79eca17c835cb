// Package prediction talks to a Replicate-compatible asynchronous prediction
// API.
//
// A prediction is submitted once, polled until it reaches a terminal status,
// and its output URL is downloaded to a local file. Client exposes each step
// (Create, Get, Await, Download) and Run composes them for a Job, which bundles
// the model version, input payload, polling bounds, output extractor, and
// destination path. Speech and footage generation are two Jobs over the same
// state machine.
//
// Polling honours context cancellation immediately and can be bounded by a
// maximum number of status checks or a maximum elapsed time. The remote
// prediction is not cancelled when the local wait gives up.
package prediction
