package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"reelsmith/internal/history"
	"reelsmith/internal/testsupport"
)

func TestStartFinishRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Start(ctx, history.Run{
		ID:         "run-1",
		Token:      "20240101_120000",
		Prompt:     "a história do café",
		ScriptPath: "/out/scripts/script_20240101_120000.txt",
		StartedAt:  started,
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	running, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if running.Status != history.StatusRunning || running.FinishedAt != nil {
		t.Fatalf("expected running row, got %+v", running)
	}

	finished := started.Add(95 * time.Second)
	if err := store.Finish(ctx, "run-1", history.Outcome{
		Success:    true,
		AudioPath:  "/out/audio/audio_20240101_120000.mp3",
		VideoPath:  "/out/video/video_silent_20240101_120000.mp4",
		FinalPath:  "/out/final/video_final_20240101_120000.mp4",
		Preview:    "Introdução...",
		FinishedAt: finished,
	}); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	run, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run.Status != history.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", run.Status)
	}
	if run.Prompt != "a história do café" || run.Token != "20240101_120000" {
		t.Fatalf("unexpected run identity %+v", run)
	}
	if run.ScriptPath != "/out/scripts/script_20240101_120000.txt" {
		t.Fatalf("script path should survive finish, got %q", run.ScriptPath)
	}
	if run.FinalPath != "/out/final/video_final_20240101_120000.mp4" || run.Preview != "Introdução..." {
		t.Fatalf("unexpected outcome fields %+v", run)
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("unexpected start time %s", run.StartedAt)
	}
	if run.Duration() != 95*time.Second {
		t.Fatalf("unexpected duration %s", run.Duration())
	}
}

func TestFinishFailureRecordsDetails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if err := store.Start(ctx, history.Run{ID: "run-2", Token: "20240101_120001", Prompt: "p"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := store.Finish(ctx, "run-2", history.Outcome{
		FailedStage:  "mux",
		FailureKind:  "mux",
		ErrorMessage: "exit status 1",
	}); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	run, err := store.Get(ctx, "run-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run.Status != history.StatusFailed || run.FailedStage != "mux" || run.ErrorMessage != "exit status 1" {
		t.Fatalf("unexpected failure row %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatal("expected finished time")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	err := store.Finish(context.Background(), "missing", history.Outcome{Success: true})
	if !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
}

func TestStartRequiresIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	if err := store.Start(context.Background(), history.Run{ID: "x"}); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ids := []string{"a", "b", "c", "d"}
	for i, id := range ids {
		started := base.Add(time.Duration(i) * time.Minute)
		if i == 2 {
			started = started.Add(500 * time.Millisecond)
		}
		if err := store.Start(ctx, history.Run{ID: id, Token: id, Prompt: "p", StartedAt: started}); err != nil {
			t.Fatalf("Start %s failed: %v", id, err)
		}
	}
	if err := store.Finish(ctx, "a", history.Outcome{Success: true}); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	runs, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, want := range []string{"d", "c", "b"} {
		if runs[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, runs[i].ID)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil || len(all) != 4 {
		t.Fatalf("expected all 4 runs, got %d (%v)", len(all), err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[history.StatusSucceeded] != 1 || stats[history.StatusRunning] != 3 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Start(context.Background(), history.Run{ID: "keep", Token: "t", Prompt: "p"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("expected run after reopen: %v", err)
	}
}
