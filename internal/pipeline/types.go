package pipeline

import (
	"context"
	"time"

	"reelsmith/internal/artifacts"
	"reelsmith/internal/history"
	"reelsmith/internal/media"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/services/scriptgen"
)

// Stage names used in logs, history rows and failure results.
const (
	StageReserve = "reserve"
	StageScript  = "script"
	StageSpeech  = "speech"
	StageVideo   = "video"
	StageMux     = "mux"
)

// ScriptWriter produces the narration script.
type ScriptWriter interface {
	Generate(ctx context.Context, prompt, dest string) (scriptgen.Script, error)
}

// Synthesizer turns script text into a media file at dest.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, dest string) (string, error)
}

// Muxer combines the narration and the silent footage.
type Muxer interface {
	Mux(ctx context.Context, req media.MuxRequest) (string, error)
}

// Prober inspects the final video.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// TokenReserver hands out the artifact set for a new run.
type TokenReserver interface {
	Reserve(ctx context.Context) (artifacts.Set, error)
}

// Recorder persists run history.
type Recorder interface {
	Start(ctx context.Context, run history.Run) error
	Finish(ctx context.Context, id string, outcome history.Outcome) error
}

// Result is the uniform outcome of one run. Paths lists only the artifacts
// that were completed; on success all four are set.
type Result struct {
	Success   bool
	RunID     string
	Token     string
	Paths     artifacts.Set
	Preview   string
	Stage     string
	Message   string
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
