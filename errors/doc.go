// Package errors provides the service's structured error type with error
// codes, HTTP status mapping and retryable detection.
//
// Every error response of the HTTP server is an ErrorResponse built from an
// AppError; anything else is reported as INTERNAL_ERROR.
package errors
