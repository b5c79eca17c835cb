package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"reelsmith/internal/services"
)

// OutputExtractor pulls the downloadable URL out of a succeeded prediction's
// raw output.
type OutputExtractor func(output json.RawMessage) (string, error)

var errUnexpectedOutput = errors.New("unexpected output shape")

// ScalarOutput expects the output to be a single URL string.
func ScalarOutput(output json.RawMessage) (string, error) {
	var value string
	if err := json.Unmarshal(output, &value); err != nil {
		return "", fmt.Errorf("%w: want string: %s", errUnexpectedOutput, snippet(output))
	}
	if value = strings.TrimSpace(value); value == "" {
		return "", fmt.Errorf("%w: empty string", errUnexpectedOutput)
	}
	return value, nil
}

// FirstOutput expects the output to be a list of URLs and returns the first.
func FirstOutput(output json.RawMessage) (string, error) {
	var values []string
	if err := json.Unmarshal(output, &values); err != nil {
		return "", fmt.Errorf("%w: want list of strings: %s", errUnexpectedOutput, snippet(output))
	}
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return "", fmt.Errorf("%w: empty list", errUnexpectedOutput)
	}
	return strings.TrimSpace(values[0]), nil
}

// Job describes one submit, poll, extract, download cycle.
type Job struct {
	Version     string
	Input       map[string]any
	Poll        PollOptions
	Extract     OutputExtractor
	Destination string
}

// Run executes job and returns the path of the downloaded output. A
// prediction that ends failed or canceled yields ErrGenerationFailed and no
// download is attempted.
func (c *Client) Run(ctx context.Context, job Job) (string, error) {
	stage := stageName(ctx)
	if strings.TrimSpace(job.Destination) == "" {
		return "", services.Wrap(services.ErrConfiguration, stage, "run prediction", "destination path required", nil)
	}
	extract := job.Extract
	if extract == nil {
		extract = ScalarOutput
	}

	created, err := c.Create(ctx, job.Version, job.Input)
	if err != nil {
		return "", err
	}
	final := created
	if !created.Status.IsTerminal() {
		final, err = c.Await(ctx, created.ID, job.Poll)
		if err != nil {
			return "", err
		}
	}

	if final.Status != StatusSucceeded {
		message := fmt.Sprintf("prediction %s %s", final.ID, final.Status)
		if detail := final.ErrorMessage(); detail != "" {
			message += ": " + detail
		}
		return "", services.Wrap(services.ErrGenerationFailed, stage, "await prediction", message, nil)
	}

	outputURL, err := extract(final.Output)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, stage, "extract output", "prediction "+final.ID, err)
	}
	if err := c.Download(ctx, outputURL, job.Destination); err != nil {
		return "", err
	}
	return job.Destination, nil
}

func snippet(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "<empty>"
	}
	if len(text) > 120 {
		return text[:120] + "..."
	}
	return text
}
