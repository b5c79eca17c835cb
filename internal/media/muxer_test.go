package media_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/media"
	"reelsmith/internal/services"
	"reelsmith/internal/testsupport"
)

func writeInputs(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	video := filepath.Join(dir, "video", "video_silent_20240101_120000.mp4")
	audio := filepath.Join(dir, "audio", "audio_20240101_120000.mp3")
	testsupport.WriteFile(t, video, "silent footage")
	testsupport.WriteFile(t, audio, "narration")
	return video, audio, filepath.Join(dir, "final", "video_final_20240101_120000.mp4")
}

func TestMuxBuildsCommandAndRenames(t *testing.T) {
	video, audio, final := writeInputs(t)
	muxer := media.NewMuxer("", "", nil)

	var gotName string
	var gotArgs []string
	muxer.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return nil, os.WriteFile(args[len(args)-1], []byte("muxed"), 0o644)
	})

	path, err := muxer.Mux(context.Background(), media.MuxRequest{VideoPath: video, AudioPath: audio, OutputPath: final})
	if err != nil {
		t.Fatalf("Mux returned error: %v", err)
	}
	if path != final {
		t.Fatalf("unexpected output path %q", path)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("expected ffmpeg binary, got %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{
		"-i " + video + " -i " + audio,
		"-c:v copy",
		"-c:a aac",
		"-map 0:v:0 -map 1:a:0",
		"-shortest",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
	if gotArgs[0] != "-y" {
		t.Fatalf("expected overwrite flag first, got %q", gotArgs[0])
	}
	testsupport.RequireContent(t, final, "muxed")
	entries, _ := os.ReadDir(filepath.Dir(final))
	if len(entries) != 1 {
		t.Fatalf("expected only the final file, found %d entries", len(entries))
	}
}

func TestMuxFailureCarriesToolOutput(t *testing.T) {
	video, audio, final := writeInputs(t)
	muxer := media.NewMuxer("/opt/ffmpeg/bin/ffmpeg", "libopus", nil)
	muxer.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return []byte("Invalid data found when processing input\n"), errors.New("exit status 1")
	})

	_, err := muxer.Mux(context.Background(), media.MuxRequest{VideoPath: video, AudioPath: audio, OutputPath: final})
	if !errors.Is(err, services.ErrMux) {
		t.Fatalf("expected mux error, got %v", err)
	}
	for _, want := range []string{"Invalid data found", "exit status 1"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
	if _, statErr := os.Stat(final); !os.IsNotExist(statErr) {
		t.Fatal("expected no final file after failure")
	}
	entries, _ := os.ReadDir(filepath.Dir(final))
	if len(entries) != 0 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
	for _, input := range []string{video, audio} {
		if _, statErr := os.Stat(input); statErr != nil {
			t.Fatalf("input %s should remain: %v", input, statErr)
		}
	}
}

func TestMuxMissingInput(t *testing.T) {
	video, _, final := writeInputs(t)
	muxer := media.NewMuxer("ffmpeg", "aac", nil)
	called := false
	muxer.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		called = true
		return nil, nil
	})
	_, err := muxer.Mux(context.Background(), media.MuxRequest{VideoPath: video, AudioPath: filepath.Join(t.TempDir(), "missing.mp3"), OutputPath: final})
	if !errors.Is(err, services.ErrMux) {
		t.Fatalf("expected mux error, got %v", err)
	}
	if called {
		t.Fatal("ffmpeg should not run without inputs")
	}
}

func TestMuxCustomCodec(t *testing.T) {
	video, audio, final := writeInputs(t)
	muxer := media.NewMuxer("ffmpeg", "libopus", nil)
	var gotArgs []string
	muxer.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return nil, os.WriteFile(args[len(args)-1], nil, 0o644)
	})
	if _, err := muxer.Mux(context.Background(), media.MuxRequest{VideoPath: video, AudioPath: audio, OutputPath: final}); err != nil {
		t.Fatalf("Mux returned error: %v", err)
	}
	if !strings.Contains(strings.Join(gotArgs, " "), "-c:a libopus") {
		t.Fatalf("expected custom codec in %v", gotArgs)
	}
}
