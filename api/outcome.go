package api

import (
	"net/http"

	apperrors "github.com/kbukum/whisper-api/errors"
)

// OutcomeKind tags the result of one transcription request.
type OutcomeKind int

const (
	// OutcomeOK carries a TranscriptionResult.
	OutcomeOK OutcomeKind = iota
	// OutcomeClientError is a rejected upload; the engine was not called.
	OutcomeClientError
	// OutcomeServerError is a failure after validation passed.
	OutcomeServerError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeClientError:
		return "client_error"
	case OutcomeServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// TranscriptionResult is the 200 response body.
type TranscriptionResult struct {
	Filename      string `json:"filename"`
	Transcription string `json:"transcription"`
	Language      string `json:"language"`
}

// Outcome is exactly one of: a result, a client error or a server error.
type Outcome struct {
	Kind   OutcomeKind
	Result *TranscriptionResult
	Err    *apperrors.AppError
}

func succeeded(r *TranscriptionResult) Outcome {
	return Outcome{Kind: OutcomeOK, Result: r}
}

func rejected(err *apperrors.AppError) Outcome {
	return Outcome{Kind: OutcomeClientError, Err: err}
}

func failed(err *apperrors.AppError) Outcome {
	return Outcome{Kind: OutcomeServerError, Err: err}
}

// Status maps the outcome to its HTTP status.
func (o Outcome) Status() int {
	switch o.Kind {
	case OutcomeOK:
		return http.StatusOK
	case OutcomeClientError:
		if o.Err != nil && o.Err.IsClientError() {
			return o.Err.HTTPStatus
		}
		return http.StatusBadRequest
	case OutcomeServerError:
		return http.StatusInternalServerError
	default:
		panic("api: unknown outcome kind")
	}
}

// Body returns the JSON body for the outcome.
func (o Outcome) Body() any {
	switch o.Kind {
	case OutcomeOK:
		return o.Result
	case OutcomeClientError, OutcomeServerError:
		return o.Err.ToResponse()
	default:
		panic("api: unknown outcome kind")
	}
}

// code is the error code for metrics, empty on success.
func (o Outcome) code() string {
	if o.Err == nil {
		return ""
	}
	return string(o.Err.Code)
}
