package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"reelsmith/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "binary \"ffmpeg\" not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] binary \"ffmpeg\" not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("OpenAI API", statusOK, "API reachable", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestPreflightLines(t *testing.T) {
	results := []preflight.Result{
		{Name: "OpenAI API key", Passed: true, Detail: "configured"},
		{Name: "FFprobe", Passed: true, Detail: "binary \"ffprobe\" not found (optional)"},
		{Name: "FFmpeg", Detail: "binary \"ffmpeg\" not found"},
	}
	lines := preflightLines(results, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] 2/3 checks passed") {
		t.Fatalf("unexpected summary %q", lines[0])
	}
	if !strings.Contains(lines[1], "[OK] configured") {
		t.Fatalf("unexpected ok line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN]") {
		t.Fatalf("optional miss should warn, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[ERROR]") {
		t.Fatalf("unexpected error line %q", lines[3])
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader(" Preflight ", false)
	if lines[0] != "== Preflight ==" || lines[1] != strings.Repeat("-", len(lines[0])) {
		t.Fatalf("unexpected header %q", lines)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{{Header: "Artifact"}, {Header: "Path", Align: alignRight}}, [][]string{{"Script"}})
	// go-pretty upper-cases headers; cells keep their case.
	if !strings.Contains(out, "ARTIFACT") || !strings.Contains(out, "Script") {
		t.Fatalf("unexpected table %q", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without columns")
	}
}
