package prediction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state reported by the prediction API.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// IsTerminal reports whether polling can stop. Unknown statuses are treated
// as in-flight.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// Prediction is the subset of the prediction resource reelsmith relies on.
type Prediction struct {
	ID        string          `json:"id"`
	Version   string          `json:"version"`
	Status    Status          `json:"status"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     any             `json:"error,omitempty"`
	Logs      string          `json:"logs,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

// ErrorMessage renders the remote error field, which may be a string, an
// object, or absent.
func (p Prediction) ErrorMessage() string {
	switch value := p.Error.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	}
}

type createRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
}
