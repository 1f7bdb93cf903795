package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/whisper-api/errors"
	"github.com/kbukum/whisper-api/logger"
	"github.com/kbukum/whisper-api/observability"
	"github.com/kbukum/whisper-api/scratch"
	"github.com/kbukum/whisper-api/transcription"
)

// FileField is the multipart field carrying the audio.
const FileField = "file"

// Transcriber runs the engine on a fully written audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*transcription.Response, error)
}

// Handler serves POST /transcribe/.
type Handler struct {
	engine  Transcriber
	scratch *scratch.Dir
	tracer  trace.Tracer
	metrics *observability.TranscriptionMetrics
	log     *logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithTracer sets the tracer used for the transcribe span.
func WithTracer(t trace.Tracer) Option {
	return func(h *Handler) { h.tracer = t }
}

// WithMetrics sets the instruments recorded per request.
func WithMetrics(m *observability.TranscriptionMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the handler logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// NewHandler creates a Handler writing uploads into dir.
func NewHandler(engine Transcriber, dir *scratch.Dir, opts ...Option) *Handler {
	h := &Handler{
		engine:  engine,
		scratch: dir,
		tracer:  observability.Tracer(),
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent("api")
	return h
}

// Register mounts the endpoint with and without the trailing slash.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/transcribe/", h.Transcribe)
	r.POST("/transcribe", h.Transcribe)
}

// Transcribe validates the upload, stores it in a scratch file, runs the
// engine and responds. The scratch file is gone before the response is written.
func (h *Handler) Transcribe(c *gin.Context) {
	start := time.Now()
	ctx, span := h.tracer.Start(c.Request.Context(), observability.SpanTranscribe)
	defer span.End()

	if h.metrics != nil {
		h.metrics.Begin(ctx)
	}

	outcome, up := h.handle(ctx, c.Request)
	elapsed := time.Since(start)

	h.observe(ctx, span, outcome, up, elapsed)
	c.JSON(outcome.Status(), outcome.Body())
}

// received describes the received file for logs and telemetry.
type received struct {
	filename string
	ext      string
	size     int64
}

func (h *Handler) handle(ctx context.Context, r *http.Request) (Outcome, received) {
	var up received

	part, perr := filePart(r)
	if perr != nil {
		return rejected(perr), up
	}
	defer part.Close()

	up.filename = part.FileName()
	up.ext = Extension(up.filename)
	if !Supported(up.ext) {
		return rejected(apperrors.UnsupportedFormat(up.ext, AcceptedExtensions)), up
	}

	var file *scratch.File
	err := h.guard(ctx, func() (err error) {
		file, err = h.scratch.Create(part, up.ext)
		return err
	})
	if err != nil {
		if tooLarge := asTooLarge(err); tooLarge != nil {
			return rejected(tooLarge), up
		}
		return failed(apperrors.TranscriptionFailed(err)), up
	}
	defer file.Release()
	up.size = file.Size()

	var resp *transcription.Response
	err = h.guard(ctx, func() (err error) {
		resp, err = h.engine.Transcribe(ctx, file.Path())
		return err
	})
	if err != nil {
		return failed(apperrors.TranscriptionFailed(err)), up
	}

	return succeeded(&TranscriptionResult{
		Filename:      up.filename,
		Transcription: resp.Text,
		Language:      resp.Language,
	}), up
}

// guard runs fn and turns a panic into an error, so a crashing engine or
// filesystem still yields "Transcription failed: panic: ..." and the request
// is observed like any other failure.
func (h *Handler) guard(ctx context.Context, fn func() error) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		h.log.WithContext(ctx).Error("Panic during transcription", logger.Fields(
			logger.FieldError, fmt.Sprint(rec),
			"stack", string(debug.Stack()),
		))
		err = fmt.Errorf("panic: %v", rec)
	}()
	return fn()
}

// filePart advances the multipart stream to the file field without buffering
// the body, so the audio is copied once, straight into the scratch file.
func filePart(r *http.Request) (*multipart.Part, *apperrors.AppError) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, apperrors.MissingField(FileField).WithCause(err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, apperrors.MissingField(FileField)
		}
		if err != nil {
			if tooLarge := asTooLarge(err); tooLarge != nil {
				return nil, tooLarge
			}
			return nil, apperrors.Validation(fmt.Sprintf("Malformed multipart body: %v", err)).WithCause(err)
		}
		if part.FormName() == FileField {
			return part, nil
		}
		part.Close()
	}
}

func asTooLarge(err error) *apperrors.AppError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.PayloadTooLarge(maxErr.Limit).WithCause(err)
	}
	return nil
}

func (h *Handler) observe(ctx context.Context, span trace.Span, o Outcome, up received, elapsed time.Duration) {
	span.SetAttributes(
		attribute.String(observability.AttrFilename, up.filename),
		attribute.String(observability.AttrFormat, up.ext),
		attribute.Int64(observability.AttrBytes, up.size),
		attribute.String(observability.AttrOutcome, o.Kind.String()),
	)
	if h.metrics != nil {
		h.metrics.End(ctx, o.Kind.String(), up.ext, o.code(), elapsed)
	}

	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldFilename, up.filename,
		"bytes", up.size,
		logger.FieldStatus, o.Status(),
	), elapsed)
	log := h.log.WithContext(ctx)

	switch o.Kind {
	case OutcomeOK:
		span.SetAttributes(attribute.String(observability.AttrLanguage, o.Result.Language))
		span.SetStatus(codes.Ok, "")
		log.Info("Transcription completed", fields)
	case OutcomeClientError:
		span.SetAttributes(attribute.String(observability.AttrErrorCode, o.code()))
		fields[logger.FieldError] = o.Err.Message
		log.Warn("Upload rejected", fields)
	case OutcomeServerError:
		span.SetAttributes(attribute.String(observability.AttrErrorCode, o.code()))
		span.SetStatus(codes.Error, o.Err.Message)
		if o.Err.Cause != nil {
			span.RecordError(o.Err.Cause)
		}
		fields[logger.FieldError] = o.Err.Message
		log.Error("Transcription failed", fields)
	}
}
