package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"reelsmith/internal/artifacts"
	"reelsmith/internal/config"
	"reelsmith/internal/history"
	"reelsmith/internal/media"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/notifications"
	"reelsmith/internal/services/prediction"
	"reelsmith/internal/services/scriptgen"
	"reelsmith/internal/synth"
)

// FromConfig wires the production collaborators described by cfg. The
// returned close function releases the history database.
func FromConfig(cfg *config.Config, logger *slog.Logger, extra ...Option) (*Orchestrator, func() error, error) {
	if cfg == nil {
		return nil, nil, errors.New("pipeline: config is nil")
	}
	predictions := prediction.NewClientFromConfig(cfg, prediction.WithLogger(logger))

	deps := Dependencies{
		Tokens:   artifacts.NewReserver(artifacts.LayoutFromConfig(cfg), cfg.Paths.OutputDir),
		Script:   scriptgen.NewFromConfig(cfg, scriptgen.WithLogger(logger)),
		Speech:   synth.NewSpeech(predictions, synth.SpeechConfigFromConfig(cfg)),
		Video:    synth.NewVideo(predictions, synth.VideoConfigFromConfig(cfg)),
		Muxer:    media.NewMuxerFromConfig(cfg, logger),
		Notifier: notifications.NewService(cfg),
	}
	if cfg.Mux.ProbeOutput {
		deps.Prober = ffprobe.NewProber(cfg.Mux.FFprobeBinary)
	}

	closeFn := func() error { return nil }
	if cfg.Pipeline.RecordHistory {
		store, err := history.OpenFromConfig(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open run history: %w", err)
		}
		deps.History = store
		closeFn = store.Close
	}

	orchestrator, err := New(deps, Options{
		ParallelSynthesis: cfg.Pipeline.ParallelSynthesis,
		PreviewLength:     cfg.Pipeline.PreviewLength,
	}, logger, extra...)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return orchestrator, closeFn, nil
}
