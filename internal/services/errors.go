package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrExternalService    = errors.New("external service error")
	ErrGenerationFailed   = errors.New("generation failed")
	ErrDownload           = errors.New("download error")
	ErrMux                = errors.New("mux error")
	ErrTimeout            = errors.New("timeout")
	ErrConfiguration      = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind maps an error to a short, stable label suitable for run history
// and notifications.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrDownload):
		return "download"
	case errors.Is(err, ErrMux):
		return "mux"
	case errors.Is(err, ErrExternalService):
		return "external_service"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

const maxErrorBody = 512

// HTTPError reports a remote call that answered with an unexpected status.
// It unwraps to ErrExternalService unless a different marker was supplied.
type HTTPError struct {
	Service    string
	Operation  string
	StatusCode int
	Body       string
	marker     error
}

// NewHTTPError builds an HTTPError tagged with marker (ErrExternalService when nil).
func NewHTTPError(marker error, service, operation string, status int, body []byte) *HTTPError {
	if marker == nil {
		marker = ErrExternalService
	}
	return &HTTPError{
		Service:    service,
		Operation:  operation,
		StatusCode: status,
		Body:       string(body),
		marker:     marker,
	}
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	prefix := buildDetail(e.Service, e.Operation, "")
	if body == "" {
		return fmt.Sprintf("%s: status %d", prefix, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", prefix, e.StatusCode, body)
}

func (e *HTTPError) Unwrap() error {
	if e.marker == nil {
		return ErrExternalService
	}
	return e.marker
}
