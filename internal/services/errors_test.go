package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"reelsmith/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrMux, "mux", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrMux) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"mux", "ffmpeg", "failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestHTTPErrorMatchesMarker(t *testing.T) {
	err := services.NewHTTPError(nil, "replicate", "create prediction", 422, []byte(`{"detail":"bad input"}`))
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 422") || !strings.Contains(err.Error(), "bad input") {
		t.Fatalf("unexpected error text %q", err.Error())
	}

	download := services.NewHTTPError(services.ErrDownload, "replicate", "download", 404, nil)
	wrapped := fmt.Errorf("stage: %w", download)
	if !errors.Is(wrapped, services.ErrDownload) {
		t.Fatalf("expected download marker, got %v", wrapped)
	}
	if errors.Is(wrapped, services.ErrExternalService) {
		t.Fatal("download error should not match external service marker")
	}
	var httpErr *services.HTTPError
	if !errors.As(wrapped, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %#v", httpErr)
	}
}

func TestHTTPErrorTruncatesLongBodies(t *testing.T) {
	body := strings.Repeat("x", 2000)
	err := services.NewHTTPError(nil, "openai", "chat completion", 500, []byte(body))
	if len(err.Error()) > 600 {
		t.Fatalf("expected truncated message, got %d bytes", len(err.Error()))
	}
	if err.Body != body {
		t.Fatal("expected full body to be retained on the error value")
	}
}

func TestHTTPErrorTruncatesOnRuneBoundary(t *testing.T) {
	body := "x" + strings.Repeat("é", 1000)
	msg := services.NewHTTPError(nil, "replicate", "create prediction", 422, []byte(body)).Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("truncated message is not valid UTF-8: %q", msg[len(msg)-8:])
	}
	if !strings.HasSuffix(msg, "é...") {
		t.Fatalf("expected message to end on a whole rune, got %q", msg[len(msg)-8:])
	}
}

func TestFailureKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrMissingCredentials, "", "", "OPENAI_API_KEY", nil), "missing_credentials"},
		{services.Wrap(services.ErrTimeout, "video", "await", "gave up", nil), "timeout"},
		{services.Wrap(services.ErrGenerationFailed, "speech", "await", "failed", nil), "generation_failed"},
		{services.NewHTTPError(services.ErrDownload, "replicate", "download", 500, nil), "download"},
		{services.Wrap(services.ErrMux, "mux", "", "", nil), "mux"},
		{services.NewHTTPError(nil, "openai", "", 401, nil), "external_service"},
		{fmt.Errorf("await: %w", context.Canceled), "canceled"},
		{errors.New("disk full"), "internal"},
	}
	for _, tc := range tests {
		if got := services.FailureKind(tc.err); got != tc.want {
			t.Fatalf("FailureKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
