package jobs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dyike/manbo/internal/backend"
)

const (
	submitFallback = "failed to submit analysis"
	fetchFallback  = "failed to fetch analysis result"
	// DefaultFailureReason is shown when the backend marks a job failed without a reason.
	DefaultFailureReason = "analysis failed"
)

var (
	// ErrNotReady means the result endpoint answered before the job completed.
	ErrNotReady = backend.ErrResultNotReady
	// ErrCancelled marks a job the client stopped tracking.
	ErrCancelled = errors.New("analysis cancelled")
)

// FieldError is one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned before anything is sent to the backend.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "invalid analysis request: " + strings.Join(msgs, "; ")
}

// Field returns the message for name, or "".
func (e *ValidationError) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// SubmissionError means the backend rejected the submission or could not be reached.
type SubmissionError struct {
	// StatusCode is zero for transport failures.
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode == 0 && e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func newSubmissionError(err error) *SubmissionError {
	se := &SubmissionError{Message: submitFallback, Err: err}
	if apiErr, ok := backend.AsAPIError(err); ok {
		se.StatusCode = apiErr.StatusCode
		if apiErr.Message != "" {
			se.Message = apiErr.Message
		}
	}
	return se
}

// PollingError is a status check that failed at the transport or decode level.
type PollingError struct {
	JobID string
	Err   error
}

func (e *PollingError) Error() string {
	return fmt.Sprintf("status check for %s failed: %v", e.JobID, e.Err)
}

func (e *PollingError) Unwrap() error { return e.Err }

// JobFailure is a terminal failure reported by the backend.
type JobFailure struct {
	JobID  string
	Reason string
}

func (e *JobFailure) Error() string { return e.Reason }

// ResultFetchError means a completed job's result could not be retrieved.
type ResultFetchError struct {
	JobID      string
	StatusCode int
	Message    string
	Err        error
}

func (e *ResultFetchError) Error() string {
	if e.StatusCode == 0 && e.Err != nil && e.Message == fetchFallback {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ResultFetchError) Unwrap() error { return e.Err }

func newResultFetchError(jobID string, err error) *ResultFetchError {
	fe := &ResultFetchError{JobID: jobID, Message: fetchFallback, Err: err}
	switch apiErr, ok := backend.AsAPIError(err); {
	case errors.Is(err, ErrNotReady):
		fe.Message = "analysis result is not ready yet"
	case ok:
		fe.StatusCode = apiErr.StatusCode
		if apiErr.Message != "" {
			fe.Message = apiErr.Message
		}
	}
	return fe
}
