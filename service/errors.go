package services

import "fmt"

// NotFoundError reports an unknown site or document id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InferenceInvocationError reports that the inference backend was
// unreachable or returned a non-success status. Surfaced to the caller as a
// transient failure; never persisted and never retried automatically.
type InferenceInvocationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *InferenceInvocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference invocation failed: %v", e.Err)
	}
	return fmt.Sprintf("inference failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *InferenceInvocationError) Unwrap() error {
	return e.Err
}

// BatchItemError reports a single-item failure during discovery. Discovery
// logs and skips these; batch status updates roll the whole batch back
// instead.
type BatchItemError struct {
	URL string
	Err error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("discovery failed for %s: %v", e.URL, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}
