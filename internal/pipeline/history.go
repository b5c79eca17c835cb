package pipeline

import (
	"context"
	"time"

	"reelsmith/internal/artifacts"
	"reelsmith/internal/history"
	"reelsmith/internal/services"
)

func historyRun(ctx context.Context, started time.Time, prompt string, set artifacts.Set) history.Run {
	runID, _ := services.RunIDFromContext(ctx)
	return history.Run{
		ID:         runID,
		Token:      set.Token,
		Prompt:     prompt,
		ScriptPath: set.Script,
		StartedAt:  started,
	}
}

func historyOutcome(now time.Time, result Result) history.Outcome {
	outcome := history.Outcome{
		Success:    result.Success,
		ScriptPath: result.Paths.Script,
		AudioPath:  result.Paths.Audio,
		VideoPath:  result.Paths.SilentVideo,
		FinalPath:  result.Paths.Final,
		Preview:    result.Preview,
		FinishedAt: now,
	}
	if !result.Success {
		outcome.FailedStage = result.Stage
		outcome.FailureKind = services.FailureKind(result.Err)
		if result.Err != nil {
			outcome.ErrorMessage = result.Err.Error()
		}
	}
	return outcome
}
