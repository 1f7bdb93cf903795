package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/whisper-api/logger"
	"github.com/kbukum/whisper-api/scratch"
	"github.com/kbukum/whisper-api/server/middleware"
	"github.com/kbukum/whisper-api/transcription"
)

const scratchDir = "/scratch"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeEngine reads the scratch file through fs and echoes its content.
type fakeEngine struct {
	fs       afero.Fs
	err      error
	panicMsg string
	language string

	mu    sync.Mutex
	paths []string
	calls atomic.Int32
}

func (f *fakeEngine) Transcribe(_ context.Context, path string) (*transcription.Response, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return nil, fmt.Errorf("engine could not read %s: %w", path, err)
	}
	lang := f.language
	if lang == "" {
		lang = "en"
	}
	return &transcription.Response{Text: "heard: " + string(data), Language: lang}, nil
}

// countingFs counts files opened for writing.
type countingFs struct {
	afero.Fs
	creates atomic.Int32
}

func (c *countingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&os.O_CREATE != 0 {
		c.creates.Add(1)
	}
	return c.Fs.OpenFile(name, flag, perm)
}

type fixture struct {
	fs     *countingFs
	engine *fakeEngine
	router *gin.Engine
}

func newFixture(t *testing.T, base afero.Fs) *fixture {
	t.Helper()
	if base == nil {
		base = afero.NewMemMapFs()
		if err := base.MkdirAll(scratchDir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	fs := &countingFs{Fs: base}
	engine := &fakeEngine{fs: fs}

	router := gin.New()
	NewHandler(engine, scratch.NewDir(fs, scratchDir, nil)).Register(router)
	return &fixture{fs: fs, engine: engine, router: router}
}

func (f *fixture) scratchFiles(t *testing.T) int {
	t.Helper()
	entries, err := afero.ReadDir(f.fs, scratchDir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("note", "ignored"); err != nil {
		t.Fatal(err)
	}
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func upload(t *testing.T, h http.Handler, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, FileField, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type errorBody struct {
	Detail string `json:"detail"`
	Error  struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, rr.Body.String())
	}
	return body
}

func TestTranscribeSuccess(t *testing.T) {
	f := newFixture(t, nil)

	rr := upload(t, f.router, "/transcribe/", "speech.wav", []byte("RIFF-audio"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var got map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"filename":      "speech.wav",
		"transcription": "heard: RIFF-audio",
		"language":      "en",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
	if len(got) != 3 {
		t.Errorf("expected exactly three fields, got %v", got)
	}

	if n := f.engine.calls.Load(); n != 1 {
		t.Errorf("expected one engine call, got %d", n)
	}
	if p := f.engine.paths[0]; !strings.HasPrefix(p, scratchDir+"/upload-") || !strings.HasSuffix(p, ".wav") {
		t.Errorf("unexpected scratch path %q", p)
	}
	if f.fs.creates.Load() != 1 {
		t.Errorf("expected one scratch file, got %d", f.fs.creates.Load())
	}
	if f.scratchFiles(t) != 0 {
		t.Error("expected scratch file to be removed")
	}
}

func TestTranscribeWithoutTrailingSlash(t *testing.T) {
	f := newFixture(t, nil)
	rr := upload(t, f.router, "/transcribe", "a.flac", []byte("fLaC"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestTranscribeExtensionCaseInsensitive(t *testing.T) {
	f := newFixture(t, nil)

	rr := upload(t, f.router, "/transcribe/", "Meeting.MP3", []byte("ID3"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.HasSuffix(f.engine.paths[0], ".mp3") {
		t.Errorf("expected lower-cased suffix, got %q", f.engine.paths[0])
	}
}

func TestTranscribeUnsupportedFormat(t *testing.T) {
	for _, name := range []string{"notes.txt", "song.ogg", "noextension", ".wav"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)

			rr := upload(t, f.router, "/transcribe/", name, []byte("whatever"))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			body := decodeError(t, rr)
			if body.Detail != "Unsupported file format. Use MP3, WAV, M4A, or FLAC." {
				t.Errorf("unexpected detail %q", body.Detail)
			}
			if body.Error.Code != "UNSUPPORTED_FORMAT" {
				t.Errorf("unexpected code %q", body.Error.Code)
			}
			if f.engine.calls.Load() != 0 {
				t.Error("engine must not be called for unsupported formats")
			}
			if f.fs.creates.Load() != 0 {
				t.Error("no scratch file may be created for unsupported formats")
			}
		})
	}
}

func TestTranscribeEngineFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.err = errors.New("whisper: RuntimeError: Failed to load audio")

	rr := upload(t, f.router, "/transcribe/", "broken.m4a", []byte("garbage"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	body := decodeError(t, rr)
	if body.Detail != "Transcription failed: whisper: RuntimeError: Failed to load audio" {
		t.Errorf("unexpected detail %q", body.Detail)
	}
	if body.Error.Code != "TRANSCRIPTION_FAILED" {
		t.Errorf("unexpected code %q", body.Error.Code)
	}
	if f.scratchFiles(t) != 0 {
		t.Error("expected scratch file to be removed after engine failure")
	}
}

func TestTranscribeDiskFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	base.MkdirAll(scratchDir, 0o755)
	f := newFixture(t, afero.NewReadOnlyFs(base))

	rr := upload(t, f.router, "/transcribe/", "speech.wav", []byte("RIFF"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if body := decodeError(t, rr); !strings.HasPrefix(body.Detail, "Transcription failed: ") {
		t.Errorf("unexpected detail %q", body.Detail)
	}
	if f.engine.calls.Load() != 0 {
		t.Error("engine must not be called when the upload could not be stored")
	}
}

func TestTranscribeMissingFileField(t *testing.T) {
	f := newFixture(t, nil)

	body, contentType := multipartBody(t, "audio", "speech.wav", []byte("RIFF"))
	req := httptest.NewRequest(http.MethodPost, "/transcribe/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if got := decodeError(t, rr).Error.Code; got != "MISSING_FIELD" {
		t.Errorf("unexpected code %q", got)
	}
}

func TestTranscribeNotMultipart(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/transcribe/", strings.NewReader(`{"file":"x.wav"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestTranscribePayloadTooLarge(t *testing.T) {
	f := newFixture(t, nil)
	h := middleware.BodySizeLimit("1KB")(f.router)

	rr := upload(t, h, "/transcribe/", "long.wav", bytes.Repeat([]byte("a"), 4096))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := decodeError(t, rr).Error.Code; got != "PAYLOAD_TOO_LARGE" {
		t.Errorf("unexpected code %q", got)
	}
	if f.engine.calls.Load() != 0 {
		t.Error("engine must not be called for oversized uploads")
	}
	if f.scratchFiles(t) != 0 {
		t.Error("expected partial scratch file to be removed")
	}
}

func TestTranscribeEnginePanicIsTranscriptionFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.panicMsg = "engine exploded"

	rr := upload(t, middleware.Recovery(logger.NewNop())(f.router), "/transcribe/", "speech.wav", []byte("RIFF"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	body := decodeError(t, rr)
	if body.Detail != "Transcription failed: panic: engine exploded" {
		t.Errorf("unexpected detail %q", body.Detail)
	}
	if body.Error.Code != "TRANSCRIPTION_FAILED" {
		t.Errorf("expected TRANSCRIPTION_FAILED, got %s", body.Error.Code)
	}
	if f.scratchFiles(t) != 0 {
		t.Error("expected scratch file to be removed after the panic")
	}
}

func TestTranscribeEnginePanicIsObserved(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(scratchDir, 0o755); err != nil {
		t.Fatal(err)
	}
	engine := &fakeEngine{fs: fs, panicMsg: "engine exploded"}
	router := gin.New()
	NewHandler(engine, scratch.NewDir(fs, scratchDir, nil), WithTracer(tp.Tracer("test"))).Register(router)

	upload(t, router, "/transcribe/", "speech.wav", []byte("RIFF"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status on span, got %v", spans[0].Status())
	}
}

func TestTranscribeConcurrentUploadsAreIsolated(t *testing.T) {
	f := newFixture(t, nil)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content := fmt.Sprintf("clip-%02d", i)
			rr := upload(t, f.router, "/transcribe/", content+".wav", []byte(content))
			if rr.Code != http.StatusOK {
				t.Errorf("request %d: expected 200, got %d", i, rr.Code)
				return
			}
			var got TranscriptionResult
			json.Unmarshal(rr.Body.Bytes(), &got)
			if got.Transcription != "heard: "+content || got.Filename != content+".wav" {
				t.Errorf("request %d received another request's result: %+v", i, got)
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, p := range f.engine.paths {
		seen[p] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct scratch paths, got %d", n, len(seen))
	}
	if f.scratchFiles(t) != 0 {
		t.Error("expected all scratch files to be removed")
	}
}

func TestTranscribeRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	fs := afero.NewMemMapFs()
	fs.MkdirAll(scratchDir, 0o755)
	router := gin.New()
	NewHandler(&fakeEngine{fs: fs}, scratch.NewDir(fs, scratchDir, nil), WithTracer(tp.Tracer("test"))).Register(router)

	upload(t, router, "/transcribe/", "notes.txt", []byte("x"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Name() != "transcribe" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["transcription.outcome"] != "client_error" || attrs["error.code"] != "UNSUPPORTED_FORMAT" {
		t.Errorf("unexpected span attributes %v", attrs)
	}
}
