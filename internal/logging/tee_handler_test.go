package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestNewTeeHandlerCollapses(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsEachLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := TeeHandler(infoHandler, debugHandler)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee enabled for debug when any handler accepts it")
	}

	logger := slog.New(h)
	logger.Debug("debug only message")
	if infoBuf.Len() != 0 {
		t.Fatal("info handler should not receive debug messages")
	}
	if debugBuf.Len() == 0 {
		t.Fatal("debug handler should receive debug messages")
	}

	logger.Info("both", slog.String("attr", "value"))
	if !bytes.Contains(infoBuf.Bytes(), []byte(`"attr"`)) || !bytes.Contains(debugBuf.Bytes(), []byte(`"attr"`)) {
		t.Fatal("expected attr in both outputs")
	}
}

func TestTeeHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := TeeHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String(FieldRunID, "abc")}).WithGroup("prediction"))
	logger.Info("polled", slog.String("status", "processing"))

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"run_id":"abc"`)) {
			t.Fatalf("handler %d missing run id: %s", i, buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte(`"prediction":{"status":"processing"}`)) {
			t.Fatalf("handler %d missing group: %s", i, buf.String())
		}
	}
}

type failingHandler struct {
	slog.Handler
	err error
}

func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }

func TestTeeHandlerJoinsMemberErrors(t *testing.T) {
	var buf bytes.Buffer
	diskFull := errors.New("disk full")
	h := TeeHandler(
		failingHandler{Handler: slog.NewJSONHandler(&bytes.Buffer{}, nil), err: diskFull},
		slog.NewJSONHandler(&buf, nil),
	)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "run started", 0)
	err := h.Handle(context.Background(), record)
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected member error, got %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("run started")) {
		t.Fatal("healthy member should still receive the record")
	}
}
