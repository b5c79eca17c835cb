package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"reelsmith/internal/artifacts"
	"reelsmith/internal/logging"
	"reelsmith/internal/media"
	"reelsmith/internal/notifications"
	"reelsmith/internal/services"
)

const (
	defaultPreviewLength = 200
	previewEllipsis      = "..."
)

// Dependencies are the collaborators a run needs. Prober, History and
// Notifier are optional.
type Dependencies struct {
	Tokens   TokenReserver
	Script   ScriptWriter
	Speech   Synthesizer
	Video    Synthesizer
	Muxer    Muxer
	Prober   Prober
	History  Recorder
	Notifier notifications.Service
}

// Options tune orchestration.
type Options struct {
	ParallelSynthesis bool
	PreviewLength     int
}

// Orchestrator runs the pipeline.
type Orchestrator struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source used for run timing.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides how run IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// New validates deps and builds an orchestrator.
func New(deps Dependencies, opts Options, logger *slog.Logger, extra ...Option) (*Orchestrator, error) {
	var missing []string
	if deps.Tokens == nil {
		missing = append(missing, "token reserver")
	}
	if deps.Script == nil {
		missing = append(missing, "script writer")
	}
	if deps.Speech == nil {
		missing = append(missing, "speech synthesizer")
	}
	if deps.Video == nil {
		missing = append(missing, "video synthesizer")
	}
	if deps.Muxer == nil {
		missing = append(missing, "muxer")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pipeline: missing %s", strings.Join(missing, ", "))
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = defaultPreviewLength
	}
	o := &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range extra {
		opt(o)
	}
	return o, nil
}

// Run executes every stage for prompt. It never returns an error: failures
// are reported through Result.
func (o *Orchestrator) Run(ctx context.Context, prompt string) Result {
	result := Result{
		RunID:     o.newID(),
		StartedAt: o.now(),
	}
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("prompt_chars", len([]rune(prompt))),
		logging.Bool("parallel_synthesis", o.opts.ParallelSynthesis),
	)

	set, err := o.deps.Tokens.Reserve(ctx)
	if err != nil {
		return o.fail(ctx, &result, StageReserve, err)
	}
	result.Token = set.Token
	o.recordStart(ctx, prompt, set, result.StartedAt)

	script, err := runStage(ctx, o, StageScript, func(stageCtx context.Context) (string, error) {
		generated, err := o.deps.Script.Generate(stageCtx, prompt, set.Script)
		return generated.Text, err
	})
	if err != nil {
		return o.finish(ctx, &result, prompt, StageScript, err)
	}
	result.Paths.Token = set.Token
	result.Paths.Script = set.Script
	result.Preview = Preview(script, o.opts.PreviewLength)

	if stage, err := o.synthesize(ctx, script, set, &result); err != nil {
		return o.finish(ctx, &result, prompt, stage, err)
	}

	final, err := runStage(ctx, o, StageMux, func(stageCtx context.Context) (string, error) {
		return o.deps.Muxer.Mux(stageCtx, media.MuxRequest{
			VideoPath:  set.SilentVideo,
			AudioPath:  set.Audio,
			OutputPath: set.Final,
		})
	})
	if err != nil {
		return o.finish(ctx, &result, prompt, StageMux, err)
	}
	result.Paths.Final = final
	o.probe(ctx, final)

	result.Success = true
	result.Message = "video generated"
	return o.finish(ctx, &result, prompt, "", nil)
}

// synthesize produces the narration and the silent footage. It returns the
// failing stage alongside the error.
func (o *Orchestrator) synthesize(ctx context.Context, script string, set artifacts.Set, result *Result) (string, error) {
	speech := func(c context.Context) (string, error) { return o.deps.Speech.Synthesize(c, script, set.Audio) }
	video := func(c context.Context) (string, error) { return o.deps.Video.Synthesize(c, script, set.SilentVideo) }

	if !o.opts.ParallelSynthesis {
		audio, err := runStage(ctx, o, StageSpeech, speech)
		if err != nil {
			return StageSpeech, err
		}
		result.Paths.Audio = audio
		silent, err := runStage(ctx, o, StageVideo, video)
		if err != nil {
			return StageVideo, err
		}
		result.Paths.SilentVideo = silent
		return "", nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	var (
		mu          sync.Mutex
		failedStage string
	)
	launch := func(stage string, fn func(context.Context) (string, error), assign func(string)) {
		group.Go(func() error {
			path, err := runStage(groupCtx, o, stage, fn)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if failedStage == "" {
					failedStage = stage
				}
				return err
			}
			assign(path)
			return nil
		})
	}
	launch(StageSpeech, speech, func(path string) { result.Paths.Audio = path })
	launch(StageVideo, video, func(path string) { result.Paths.SilentVideo = path })
	if err := group.Wait(); err != nil {
		return failedStage, err
	}
	return "", nil
}

// runStage tags ctx with stage and a fresh correlation ID, then logs the
// stage start, completion and duration.
func runStage(ctx context.Context, o *Orchestrator, stage string, fn func(context.Context) (string, error)) (string, error) {
	stageCtx := services.WithRequestID(services.WithStage(ctx, stage), uuid.NewString())
	logger := logging.WithContext(stageCtx, o.logger)
	started := o.now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	out, err := fn(stageCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("stage interrupted", logging.Error(err))
		} else {
			logging.ErrorWithContext(logger, "stage failed", "stage_failed",
				logging.Error(err),
				logging.String("failure_kind", services.FailureKind(err)),
				logging.Duration("stage_duration", o.now().Sub(started)),
			)
		}
		return "", err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", o.now().Sub(started)),
	)
	return out, nil
}

func (o *Orchestrator) probe(ctx context.Context, path string) {
	if o.deps.Prober == nil {
		return
	}
	logger := logging.WithContext(services.WithStage(ctx, StageMux), o.logger)
	probed, err := o.deps.Prober.Inspect(ctx, path)
	if err != nil {
		logging.WarnWithContext(logger, "final video inspection failed", "probe_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the ffprobe_binary setting"),
			logging.String(logging.FieldImpact, "final video was written but not verified"),
		)
		return
	}
	attrs := []logging.Attr{
		logging.OutputPath(path),
		logging.Int("video_streams", probed.VideoStreamCount()),
		logging.Int("audio_streams", probed.AudioStreamCount()),
		logging.Float64("duration_seconds", probed.DurationSeconds()),
		logging.Int64("size_bytes", probed.SizeBytes()),
	}
	if !probed.Narrated() {
		logging.WarnWithContext(logger, "final video has unexpected streams", "probe_mismatch",
			append(attrs,
				logging.String(logging.FieldErrorHint, "inspect the video and audio artifacts"),
				logging.String(logging.FieldImpact, "final video may be missing narration or footage"),
			)...,
		)
		return
	}
	logger.Info("final video inspected", logging.Args(attrs...)...)
}

func (o *Orchestrator) fail(ctx context.Context, result *Result, stage string, err error) Result {
	result.Success = false
	result.Stage = stage
	result.Err = err
	result.Message = failureMessage(stage, err)
	result.Duration = o.now().Sub(result.StartedAt)
	logging.ErrorWithContext(logging.WithContext(ctx, o.logger), "run failed", "run_failed",
		logging.String(logging.FieldStage, stage),
		logging.Error(err),
	)
	o.notify(ctx, *result, "")
	return *result
}

func (o *Orchestrator) finish(ctx context.Context, result *Result, prompt, stage string, err error) Result {
	if err != nil {
		result.Success = false
		result.Stage = stage
		result.Err = err
		result.Message = failureMessage(stage, err)
	}
	result.Duration = o.now().Sub(result.StartedAt)
	o.recordFinish(ctx, *result)

	logger := logging.WithContext(ctx, o.logger)
	if result.Success {
		logger.Info("run completed",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Token(result.Token),
			logging.String("final_path", result.Paths.Final),
			logging.Duration("run_duration", result.Duration),
		)
	} else {
		logging.ErrorWithContext(logger, "run failed", "run_failed",
			logging.String(logging.FieldStage, stage),
			logging.Token(result.Token),
			logging.Error(err),
		)
	}
	o.notify(ctx, *result, prompt)
	return *result
}

func (o *Orchestrator) recordStart(ctx context.Context, prompt string, set artifacts.Set, started time.Time) {
	if o.deps.History == nil {
		return
	}
	err := o.deps.History.Start(ctx, historyRun(ctx, started, prompt, set))
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "run history start not recorded", "history_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history_db path"),
			logging.String(logging.FieldImpact, "run will be missing from reelsmith history"),
		)
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, result Result) {
	if o.deps.History == nil || result.Token == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := o.deps.History.Finish(ctx, result.RunID, historyOutcome(o.now(), result)); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "run history outcome not recorded", "history_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history_db path"),
			logging.String(logging.FieldImpact, "history shows the run as still running"),
		)
	}
}

func (o *Orchestrator) notify(ctx context.Context, result Result, prompt string) {
	if o.deps.Notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	event := notifications.EventRunCompleted
	payload := notifications.Payload{
		"prompt":    prompt,
		"token":     result.Token,
		"finalFile": result.Paths.Final,
		"duration":  result.Duration,
	}
	if !result.Success {
		event = notifications.EventRunFailed
		payload = notifications.Payload{
			"stage": result.Stage,
			"error": result.Err,
			"token": result.Token,
		}
	}
	if err := o.deps.Notifier.Publish(ctx, event, payload); err != nil {
		logging.WithContext(ctx, o.logger).Debug("run notification failed", logging.Error(err))
	}
}

func failureMessage(stage string, err error) string {
	if errors.Is(err, context.Canceled) {
		return fmt.Sprintf("run canceled during %s stage", stage)
	}
	return fmt.Sprintf("%s stage failed: %v", stage, err)
}

// Preview returns the first limit characters of script, followed by "..."
// when the script is longer.
func Preview(script string, limit int) string {
	if limit <= 0 {
		limit = defaultPreviewLength
	}
	runes := []rune(script)
	if len(runes) <= limit {
		return script
	}
	return string(runes[:limit]) + previewEllipsis
}
