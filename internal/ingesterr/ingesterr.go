// Package ingesterr defines the ingestion pipeline's error taxonomy (spec.md
// §7): InvalidInput, UpstreamUnavailable, SourceFailure, ProcessorContract,
// NotConfigured. Each wraps an underlying cause so callers can still
// errors.Is/As through to it.
package ingesterr

import "fmt"

// InvalidInput is a caller error: bad base64, unsupported URI scheme,
// unsupported source_type, malformed metadata JSON. Surface as HTTP 400.
type InvalidInput struct {
	Reason string
	Cause  error
}

func (e *InvalidInput) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func (e *InvalidInput) Unwrap() error { return e.Cause }

// UpstreamUnavailable is a non-2xx or timeout from the extractor, embedder,
// analyzer, or a sink. Surface as HTTP 500 (single-Item) naming the
// offending processor; for multi-Item sources the caller records it on the
// Item's summary and continues siblings.
type UpstreamUnavailable struct {
	Processor string
	Cause     error
}

func (e *UpstreamUnavailable) Error() string {
	return fmt.Sprintf("upstream unavailable: %s: %v", e.Processor, e.Cause)
}

func (e *UpstreamUnavailable) Unwrap() error { return e.Cause }

// SourceFailure is a login/select/connect error. Multi-Item sources return
// an empty batch rather than erroring the whole request.
type SourceFailure struct {
	Source string
	Cause  error
}

func (e *SourceFailure) Error() string {
	return fmt.Sprintf("source failure: %s: %v", e.Source, e.Cause)
}

func (e *SourceFailure) Unwrap() error { return e.Cause }

// ProcessorContract means a processor returned a result missing a required
// field, or of the wrong type. Fatal for the Item only.
type ProcessorContract struct {
	Processor string
	Reason    string
}

func (e *ProcessorContract) Error() string {
	return fmt.Sprintf("processor contract violated: %s: %s", e.Processor, e.Reason)
}

// NotConfigured means async mode was requested but the broker URL is
// missing, or a provider was requested but its key is absent. HTTP 400 when
// the caller asked for something unavailable, 500 when the service itself
// is missing required configuration.
type NotConfigured struct {
	What string
}

func (e *NotConfigured) Error() string {
	return fmt.Sprintf("not configured: %s", e.What)
}
