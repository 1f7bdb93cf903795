// Package resilience provides the bulkhead used to gate access to the
// transcription engine and a retry helper for remote engines.
//
// A bulkhead with one slot serializes calls into a model that must not be
// entered concurrently; more slots allow bounded parallelism.
//
//	gate := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "engine", MaxConcurrent: 1})
//	resp, err := resilience.ExecuteWithResult(gate, ctx, func() (*Response, error) {
//	    return provider.Transcribe(ctx, req)
//	})
//
// Retry re-runs a call with exponential backoff while its error is transient:
//
//	resp, err := resilience.Retry(ctx, resilience.RetryConfig{MaxAttempts: 3}, send)
package resilience
