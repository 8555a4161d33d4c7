package apperror

import (
	"errors"
	"fmt"
)

// NotFoundError signals an unknown session or analysis id. The caller is
// expected to start over (new session) or re-navigate.
type NotFoundError struct {
	Resource string // "session" | "analysis"
	Id       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Id)
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, Id: id}
}

// QuotaExceededError carries the remaining upload allowance so the client can
// show the user exactly how many files still fit.
type QuotaExceededError struct {
	MaxFiles  int
	Uploaded  int
	Requested int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("upload quota exceeded: %d requested, %d remaining", e.Requested, e.Remaining())
}

func (e *QuotaExceededError) Remaining() int {
	remaining := e.MaxFiles - e.Uploaded
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NoAnalysisError: chat was requested before any analysis exists for the session.
type NoAnalysisError struct {
	SessionId string
}

func (e *NoAnalysisError) Error() string {
	return "no analysis available for session " + e.SessionId
}

// MalformedAnalysisError: the LLM response could not be repaired into a valid
// artifact (summary or executive report missing). Triggers the strict retry.
type MalformedAnalysisError struct {
	Reason string
}

func (e *MalformedAnalysisError) Error() string {
	return "malformed analysis response: " + e.Reason
}

// AnalysisFailedError is terminal for one analyze call: the LLM call failed or
// stayed malformed after the retry. Quota spent on the upload is not refunded.
type AnalysisFailedError struct {
	Cause error
}

func (e *AnalysisFailedError) Error() string {
	return "analysis failed: " + e.Cause.Error()
}

func (e *AnalysisFailedError) Unwrap() error {
	return e.Cause
}

// ChatFailedError is terminal for one chat call. The pending turn has already
// been discarded, so the caller may simply resubmit the same message.
type ChatFailedError struct {
	Cause error
}

func (e *ChatFailedError) Error() string {
	return "chat failed: " + e.Cause.Error()
}

func (e *ChatFailedError) Unwrap() error {
	return e.Cause
}

// StoreUnavailableError wraps infrastructure faults from the persistence layer.
// Not retried here; surfaced as 503 to the single request that hit it.
type StoreUnavailableError struct {
	Cause error
}

func (e *StoreUnavailableError) Error() string {
	return "store unavailable: " + e.Cause.Error()
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Cause
}

// EmptyBatchError: analyze was requested before any files were uploaded.
type EmptyBatchError struct {
	SessionId string
}

func (e *EmptyBatchError) Error() string {
	return "no files uploaded for session " + e.SessionId
}

// InvalidFileError rejects unsupported upload content before it consumes quota.
type InvalidFileError struct {
	Filename string
	Reason   string
}

func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("invalid file %q: %s", e.Filename, e.Reason)
}

func AsNotFound(err error) (*NotFoundError, bool) {
	var target *NotFoundError
	ok := errors.As(err, &target)
	return target, ok
}

func AsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var target *QuotaExceededError
	ok := errors.As(err, &target)
	return target, ok
}
