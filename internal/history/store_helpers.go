package history

import (
	"database/sql"
	"errors"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run          Run
		status       string
		failedStage  sql.NullString
		failureKind  sql.NullString
		errorMessage sql.NullString
		scriptPath   sql.NullString
		audioPath    sql.NullString
		videoPath    sql.NullString
		finalPath    sql.NullString
		preview      sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Token,
		&run.Prompt,
		&status,
		&failedStage,
		&failureKind,
		&errorMessage,
		&scriptPath,
		&audioPath,
		&videoPath,
		&finalPath,
		&preview,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Run{}, err
	}
	run.Status = Status(status)
	run.FailedStage = failedStage.String
	run.FailureKind = failureKind.String
	run.ErrorMessage = errorMessage.String
	run.ScriptPath = scriptPath.String
	run.AudioPath = audioPath.String
	run.VideoPath = videoPath.String
	run.FinalPath = finalPath.String
	run.Preview = preview.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout keeps a fixed-width fraction so stored values sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
