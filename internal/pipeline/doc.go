// Package pipeline sequences the stages that turn a prompt into a narrated
// video and shapes their outcome into a uniform Result.
//
// Stages run in order: script, speech, video, mux. When parallel synthesis
// is enabled, speech and video run concurrently and a failure in one cancels
// the other. The first failing stage ends the run; artifacts already written
// stay on disk.
//
// Every run gets a UUID attached to its context so log lines, history rows
// and notifications can be correlated. History and notification failures are
// logged and never change the result.
package pipeline
