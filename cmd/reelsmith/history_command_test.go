package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/history"
	"reelsmith/internal/testsupport"
)

func seedHistory(t *testing.T, env *cliTestEnv) {
	t.Helper()
	store := testsupport.MustOpenHistory(t, env.cfg)
	ctx := context.Background()
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	runs := []struct {
		run     history.Run
		outcome history.Outcome
	}{
		{
			run: history.Run{ID: "11111111-aaaa", Token: "20240301_120000", Prompt: "coffee history", StartedAt: started},
			outcome: history.Outcome{
				Success:    true,
				ScriptPath: "/out/scripts/script_20240301_120000.txt",
				FinalPath:  "/out/final/video_final_20240301_120000.mp4",
				Preview:    "O café nasceu na Etiópia.",
				FinishedAt: started.Add(95 * time.Second),
			},
		},
		{
			run: history.Run{ID: "22222222-bbbb", Token: "20240301_130000", Prompt: "ocean conservation", StartedAt: started.Add(time.Hour)},
			outcome: history.Outcome{
				FailedStage:  "speech",
				FailureKind:  "generation_failed",
				ErrorMessage: "speech stage failed: prediction failed",
				FinishedAt:   started.Add(time.Hour + 30*time.Second),
			},
		},
	}
	for _, entry := range runs {
		if err := store.Start(ctx, entry.run); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if err := store.Finish(ctx, entry.run.ID, entry.outcome); err != nil {
			t.Fatalf("Finish: %v", err)
		}
	}
}

func TestHistoryListsRunsNewestFirst(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.NewConfig(t))
	seedHistory(t, env)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "22222222")
	requireContains(t, out, "11111111")
	if strings.Index(out, "22222222") > strings.Index(out, "11111111") {
		t.Fatalf("expected newest run first:\n%s", out)
	}
	requireContains(t, out, "speech: speech stage failed")
	requireContains(t, out, "1m35s")
	requireContains(t, out, "Succeeded: 1  Failed: 1  Running: 0")

	out, _, err = runCLI(t, []string{"history", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history --limit: %v", err)
	}
	if strings.Contains(out, "11111111") {
		t.Fatalf("limit should hide the older run:\n%s", out)
	}
}

func TestHistoryShow(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.NewConfig(t))
	seedHistory(t, env)

	out, _, err := runCLI(t, []string{"history", "show", "11111111-aaaa"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Status:   succeeded")
	requireContains(t, out, "/out/final/video_final_20240301_120000.mp4")
	requireContains(t, out, "O café nasceu na Etiópia.")

	if _, _, err := runCLI(t, []string{"history", "show", "missing"}, env.configPath); err == nil {
		t.Fatal("expected unknown run to fail")
	}
}

func TestHistoryEmptyAndDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.NewConfig(t))
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.RecordHistory = false
	disabled := setupCLITestEnv(t, cfg)
	if _, _, err := runCLI(t, []string{"history"}, disabled.configPath); err == nil {
		t.Fatal("expected disabled history to fail")
	}
}
