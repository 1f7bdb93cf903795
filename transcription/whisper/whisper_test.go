package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/whisper-api/transcription"
)

func writeAudio(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func newProvider(url string) *Provider {
	cfg := transcription.Config{URL: url, Model: "base"}
	p := NewProvider(cfg, nil)
	p.retry.InitialBackoff = time.Millisecond
	p.retry.MaxBackoff = 2 * time.Millisecond
	return p
}

func TestTranscribe(t *testing.T) {
	var gotModel, gotLanguage, gotFilename string
	var gotAudio []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transcribe" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotFilename = hdr.Filename
		gotAudio, _ = io.ReadAll(f)

		json.NewEncoder(w).Encode(map[string]any{
			"text":     " good morning ",
			"language": "en",
			"segments": []map[string]any{{"text": " good morning", "start": 0.0, "end": 1.2}},
		})
	}))
	defer srv.Close()

	path := writeAudio(t, "upload-1.wav", []byte("RIFF....WAVE"))
	resp, err := newProvider(srv.URL+"/").Transcribe(context.Background(), transcription.Request{
		AudioPath: path,
		Language:  "en",
	})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if resp.Text != "good morning" || resp.Language != "en" || resp.Duration != 1.2 {
		t.Errorf("unexpected response %+v", resp)
	}
	if gotModel != "base" || gotLanguage != "en" {
		t.Errorf("unexpected form fields model=%q language=%q", gotModel, gotLanguage)
	}
	if gotFilename != "upload-1.wav" {
		t.Errorf("expected real file name, got %q", gotFilename)
	}
	if string(gotAudio) != "RIFF....WAVE" {
		t.Errorf("unexpected audio payload %q", gotAudio)
	}
}

func TestTranscribeServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	path := writeAudio(t, "a.mp3", []byte("ID3"))
	_, err := newProvider(srv.URL).Transcribe(context.Background(), transcription.Request{AudioPath: path})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 503") || !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("unexpected error %v", err)
	}
	if n := calls.Load(); n != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, n)
	}
}

func TestTranscribeRetriesUntilSidecarReady(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		sizes = append(sizes, len(body))
		mu.Unlock()
		if calls.Add(1) == 1 {
			http.Error(w, "loading", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"text": "ready", "language": "en"})
	}))
	defer srv.Close()

	path := writeAudio(t, "b.wav", []byte("RIFF....WAVE"))
	resp, err := newProvider(srv.URL).Transcribe(context.Background(), transcription.Request{AudioPath: path})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if resp.Text != "ready" || calls.Load() != 2 {
		t.Errorf("unexpected result %+v after %d calls", resp, calls.Load())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(sizes) != 2 || sizes[0] == 0 || sizes[0] != sizes[1] {
		t.Errorf("expected the full body on every attempt, got sizes %v", sizes)
	}
}

func TestTranscribeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported audio", http.StatusBadRequest)
	}))
	defer srv.Close()

	path := writeAudio(t, "c.flac", []byte("fLaC"))
	if _, err := newProvider(srv.URL).Transcribe(context.Background(), transcription.Request{AudioPath: path}); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected a single attempt, got %d", n)
	}
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", fmt.Errorf("whisper request: %w", &url.Error{Op: "Post", URL: "http://sidecar/transcribe", Err: errors.New("connection refused")}), true},
		{"decode", errors.New("decode whisper response: unexpected EOF"), false},
		{"unavailable", &statusError{code: http.StatusServiceUnavailable}, true},
		{"gateway timeout", &statusError{code: http.StatusGatewayTimeout}, true},
		{"bad request", &statusError{code: http.StatusBadRequest}, false},
		{"internal", &statusError{code: http.StatusInternalServerError}, false},
		{"cancelled", context.Canceled, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := transient(tc.err); got != tc.want {
				t.Errorf("transient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	_, err := newProvider("http://127.0.0.1:1").Transcribe(context.Background(), transcription.Request{
		AudioPath: filepath.Join(t.TempDir(), "gone.wav"),
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	if !newProvider(srv.URL).IsAvailable(context.Background()) {
		t.Error("expected sidecar to be available")
	}
	srv.Close()
	if newProvider(srv.URL).IsAvailable(context.Background()) {
		t.Error("expected closed sidecar to be unavailable")
	}
}

func TestFactoryRequiresURL(t *testing.T) {
	if _, err := Factory()(transcription.Options{}); err == nil {
		t.Fatal("expected error without url")
	}
}
