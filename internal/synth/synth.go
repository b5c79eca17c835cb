// Package synth turns a narration script into media by running prediction
// jobs: one for speech and one for silent footage.
package synth

import (
	"context"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
	"reelsmith/internal/services/prediction"
)

// Stage names stamped on the context while each synthesizer runs.
const (
	StageSpeech = "speech"
	StageVideo  = "video"
)

// JobRunner executes a prediction job and returns the downloaded file path.
type JobRunner interface {
	Run(ctx context.Context, job prediction.Job) (string, error)
}

// SpeechConfig holds the text-to-speech model inputs.
type SpeechConfig struct {
	Version  string
	Speaker  string
	Language string
	Preset   string
	Poll     prediction.PollOptions
}

// VideoConfig holds the footage model inputs.
type VideoConfig struct {
	Version        string
	NegativePrompt string
	Width          int
	Height         int
	NumOutputs     int
	InferenceSteps int
	GuidanceScale  float64
	Poll           prediction.PollOptions
}

// SpeechConfigFromConfig maps the [speech] section.
func SpeechConfigFromConfig(cfg *config.Config) SpeechConfig {
	return SpeechConfig{
		Version:  cfg.Speech.Version,
		Speaker:  cfg.Speech.Speaker,
		Language: cfg.Speech.Language,
		Preset:   cfg.Speech.Preset,
		Poll: prediction.PollOptions{
			Interval:    seconds(cfg.Speech.PollIntervalSeconds),
			MaxAttempts: cfg.Speech.MaxPolls,
			MaxWait:     seconds(cfg.Speech.MaxWaitSeconds),
		},
	}
}

// VideoConfigFromConfig maps the [video] section.
func VideoConfigFromConfig(cfg *config.Config) VideoConfig {
	return VideoConfig{
		Version:        cfg.Video.Version,
		NegativePrompt: cfg.Video.NegativePrompt,
		Width:          cfg.Video.Width,
		Height:         cfg.Video.Height,
		NumOutputs:     cfg.Video.NumOutputs,
		InferenceSteps: cfg.Video.InferenceSteps,
		GuidanceScale:  cfg.Video.GuidanceScale,
		Poll: prediction.PollOptions{
			Interval:    seconds(cfg.Video.PollIntervalSeconds),
			MaxAttempts: cfg.Video.MaxPolls,
			MaxWait:     seconds(cfg.Video.MaxWaitSeconds),
		},
	}
}

// Speech synthesizes narration audio from script text.
type Speech struct {
	runner JobRunner
	cfg    SpeechConfig
}

// NewSpeech returns a speech synthesizer backed by runner.
func NewSpeech(runner JobRunner, cfg SpeechConfig) *Speech {
	return &Speech{runner: runner, cfg: cfg}
}

// Job builds the prediction job for text. The output is a single URL.
func (s *Speech) Job(text, dest string) prediction.Job {
	return prediction.Job{
		Version: s.cfg.Version,
		Input: map[string]any{
			"text":     text,
			"speaker":  s.cfg.Speaker,
			"language": s.cfg.Language,
			"preset":   s.cfg.Preset,
		},
		Poll:        s.cfg.Poll,
		Extract:     prediction.ScalarOutput,
		Destination: dest,
	}
}

// Synthesize runs the speech job and returns the audio path.
func (s *Speech) Synthesize(ctx context.Context, text, dest string) (string, error) {
	return s.runner.Run(services.WithStage(ctx, StageSpeech), s.Job(text, dest))
}

// Video generates silent footage from script text.
type Video struct {
	runner JobRunner
	cfg    VideoConfig
}

// NewVideo returns a footage synthesizer backed by runner.
func NewVideo(runner JobRunner, cfg VideoConfig) *Video {
	return &Video{runner: runner, cfg: cfg}
}

// Job builds the prediction job for text. The output is a list of URLs and
// the first one is downloaded.
func (v *Video) Job(text, dest string) prediction.Job {
	input := map[string]any{
		"prompt":              text,
		"width":               v.cfg.Width,
		"height":              v.cfg.Height,
		"num_outputs":         v.cfg.NumOutputs,
		"num_inference_steps": v.cfg.InferenceSteps,
		"guidance_scale":      v.cfg.GuidanceScale,
	}
	if v.cfg.NegativePrompt != "" {
		input["negative_prompt"] = v.cfg.NegativePrompt
	}
	return prediction.Job{
		Version:     v.cfg.Version,
		Input:       input,
		Poll:        v.cfg.Poll,
		Extract:     prediction.FirstOutput,
		Destination: dest,
	}
}

// Synthesize runs the footage job and returns the silent video path.
func (v *Video) Synthesize(ctx context.Context, text, dest string) (string, error) {
	return v.runner.Run(services.WithStage(ctx, StageVideo), v.Job(text, dest))
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}
