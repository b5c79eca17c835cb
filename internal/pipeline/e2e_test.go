package pipeline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/history"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/testsupport"
)

const ffprobeNarrated = `printf '%s' '{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio"}],"format":{"duration":"12.0","size":"5"}}'`

type remoteStub struct {
	mu     sync.Mutex
	server *httptest.Server
	script string
	inputs map[string]map[string]any
	// X-Request-ID per prediction id
	requestIDs map[string]string
}

func newRemoteStub(t *testing.T, cfg *config.Config, script string) *remoteStub {
	t.Helper()
	stub := &remoteStub{script: script, inputs: make(map[string]map[string]any), requestIDs: make(map[string]string)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": cfg.Script.Model,
			"choices": []any{map[string]any{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": stub.script},
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	})
	mux.HandleFunc("POST /predictions", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Version string         `json:"version"`
			Input   map[string]any `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode prediction: %v", err)
		}
		id := "speech"
		if body.Version == cfg.Video.Version {
			id = "video"
		}
		stub.mu.Lock()
		stub.inputs[id] = body.Input
		stub.requestIDs[id] = r.Header.Get("X-Request-ID")
		stub.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "version": body.Version, "status": "starting"})
	})
	mux.HandleFunc("GET /predictions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var output any = stub.server.URL + "/files/audio.mp3"
		if id == "video" {
			output = []string{stub.server.URL + "/files/video.mp4"}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "status": "succeeded", "output": output})
	})
	mux.HandleFunc("GET /files/{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("bytes of " + r.PathValue("name")))
	})
	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

func TestEndToEndWithStubbedServices(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBinaryScript("ffmpeg", testsupport.FFmpegWritesOutput),
		testsupport.WithBinaryScript("ffprobe", ffprobeNarrated),
	)
	script := strings.Repeat("Narração. ", 40)
	stub := newRemoteStub(t, cfg, script)
	cfg.Script.BaseURL = stub.server.URL
	cfg.Replicate.BaseURL = stub.server.URL
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	orch, closeFn, err := pipeline.FromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer closeFn()

	result := orch.Run(context.Background(), "a história do café")
	if !result.Success {
		t.Fatalf("expected success, got %s", result.Message)
	}
	contents := map[string]string{
		result.Paths.Script:      script,
		result.Paths.Audio:       "bytes of audio.mp3",
		result.Paths.SilentVideo: "bytes of video.mp4",
		result.Paths.Final:       "muxed",
	}
	for path, want := range contents {
		testsupport.RequireContent(t, path, want)
	}
	if !strings.HasSuffix(result.Preview, "...") || len([]rune(result.Preview)) != 203 {
		t.Fatalf("unexpected preview %q", result.Preview)
	}

	stub.mu.Lock()
	speechInput, videoInput := stub.inputs["speech"], stub.inputs["video"]
	speechRID, videoRID := stub.requestIDs["speech"], stub.requestIDs["video"]
	stub.mu.Unlock()
	if speechRID == "" || videoRID == "" || speechRID == videoRID {
		t.Fatalf("expected distinct per-stage request ids, got %q and %q", speechRID, videoRID)
	}
	if speechInput["text"] != script || speechInput["language"] != "pt" {
		t.Fatalf("unexpected speech input %v", speechInput)
	}
	if videoInput["prompt"] != script || videoInput["width"] != float64(1024) {
		t.Fatalf("unexpected video input %v", videoInput)
	}

	store := testsupport.MustOpenHistory(t, cfg)
	runs, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusSucceeded || runs[0].FinalPath != result.Paths.Final {
		t.Fatalf("unexpected history %+v", runs)
	}
}

func TestEndToEndMuxFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBinaryScript("ffmpeg", `echo "Stream map '1:a:0' matches no streams." >&2
exit 1`),
	)
	cfg.Mux.ProbeOutput = false
	stub := newRemoteStub(t, cfg, "short script")
	cfg.Script.BaseURL = stub.server.URL
	cfg.Replicate.BaseURL = stub.server.URL
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	orch, closeFn, err := pipeline.FromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer closeFn()

	result := orch.Run(context.Background(), "prompt")
	if result.Success {
		t.Fatal("expected mux failure")
	}
	if !strings.Contains(result.Message, "matches no streams") {
		t.Fatalf("message should include ffmpeg output: %q", result.Message)
	}
	if result.Preview != "short script" {
		t.Fatalf("unexpected preview %q", result.Preview)
	}
	for _, path := range []string{result.Paths.Script, result.Paths.Audio, result.Paths.SilentVideo} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("artifact %s should remain: %v", path, err)
		}
	}
}
