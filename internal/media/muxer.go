package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

const (
	defaultFFmpegBinary = "ffmpeg"
	defaultAudioCodec   = "aac"
)

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// MuxRequest describes the inputs for one mux.
type MuxRequest struct {
	VideoPath  string
	AudioPath  string
	OutputPath string
}

// Muxer combines a silent video and a narration track using ffmpeg.
type Muxer struct {
	binary     string
	audioCodec string
	logger     *slog.Logger
	run        CommandRunner
}

// NewMuxer constructs a muxer. Empty binary and codec fall back to "ffmpeg"
// and "aac".
func NewMuxer(binary, audioCodec string, logger *slog.Logger) *Muxer {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = defaultFFmpegBinary
	}
	audioCodec = strings.TrimSpace(audioCodec)
	if audioCodec == "" {
		audioCodec = defaultAudioCodec
	}
	return &Muxer{
		binary:     binary,
		audioCodec: audioCodec,
		logger:     logging.NewComponentLogger(logger, "muxer"),
		run:        defaultCommandRunner,
	}
}

// NewMuxerFromConfig builds a muxer from the [mux] section.
func NewMuxerFromConfig(cfg *config.Config, logger *slog.Logger) *Muxer {
	return NewMuxer(cfg.Mux.FFmpegBinary, cfg.Mux.AudioCodec, logger)
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r CommandRunner) {
	if m != nil && r != nil {
		m.run = r
	}
}

// Binary reports the ffmpeg executable the muxer invokes.
func (m *Muxer) Binary() string {
	return m.binary
}

// Mux runs ffmpeg once and returns the final video path.
func (m *Muxer) Mux(ctx context.Context, req MuxRequest) (string, error) {
	const op = "mux"
	stage := "mux"
	if value, ok := services.StageFromContext(ctx); ok {
		stage = value
	}
	if m == nil {
		return "", services.Wrap(services.ErrConfiguration, stage, op, "muxer not initialized", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return "", services.Wrap(services.ErrConfiguration, stage, op, "output path required", nil)
	}
	for _, input := range []string{req.VideoPath, req.AudioPath} {
		if _, err := os.Stat(input); err != nil {
			return "", services.Wrap(services.ErrMux, stage, op, fmt.Sprintf("input %q unavailable", input), err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrMux, stage, op, "create output directory", err)
	}

	tmpPath := tempPath(req.OutputPath)
	args := m.buildArgs(req, tmpPath)
	logger := logging.WithContext(ctx, m.logger)
	logger.Debug("executing ffmpeg",
		logging.String("binary", m.binary),
		logging.String("args", strings.Join(args, " ")),
	)

	output, err := m.run(ctx, m.binary, args...)
	if err != nil {
		_ = os.Remove(tmpPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = "ffmpeg failed"
		}
		return "", services.Wrap(services.ErrMux, stage, op, detail, err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return "", services.Wrap(services.ErrMux, stage, op, "ffmpeg did not produce output file", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrMux, stage, op, "move output into place", err)
	}

	logger.Info("final video muxed",
		logging.String(logging.FieldEventType, "mux_complete"),
		logging.OutputPath(req.OutputPath),
		logging.String("audio_codec", m.audioCodec),
	)
	return req.OutputPath, nil
}

func (m *Muxer) buildArgs(req MuxRequest, outputPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-c:v", "copy",
		"-c:a", m.audioCodec,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		"-f", "mp4",
		outputPath,
	}
}

// tempPath keeps the temp file in the destination directory so the final
// rename stays on one filesystem.
func tempPath(output string) string {
	return filepath.Join(filepath.Dir(output), ".mux-"+filepath.Base(output)+".tmp")
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
