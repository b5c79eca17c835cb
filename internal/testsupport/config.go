package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials are set to placeholder values and every path is absolute.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	output := filepath.Join(base, "outputs")
	cfgVal.Paths.OutputDir = output
	cfgVal.Paths.ScriptsDir = filepath.Join(output, "scripts")
	cfgVal.Paths.AudioDir = filepath.Join(output, "audio")
	cfgVal.Paths.VideoDir = filepath.Join(output, "video")
	cfgVal.Paths.FinalDir = filepath.Join(output, "final")
	cfgVal.Paths.HistoryDB = filepath.Join(output, "history.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Script.APIKey = "sk-test"
	cfgVal.Replicate.APIToken = "r8-test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithoutCredentials clears both API credentials.
func WithoutCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Script.APIKey = ""
		b.cfg.Replicate.APIToken = ""
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		prependPath(b, binDir)
	}
}

// WithBinaryScript installs a shell script named name on PATH. The body runs
// under /bin/sh.
func WithBinaryScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			b.t.Fatalf("write script %s: %v", name, err)
		}
		prependPath(b, binDir)
	}
}

// FFmpegWritesOutput is a stub ffmpeg body that creates its last argument.
const FFmpegWritesOutput = `for last; do :; done
printf 'muxed' > "$last"`

func prependPath(b *configBuilder, dir string) {
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}
