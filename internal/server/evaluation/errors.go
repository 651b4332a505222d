package evaluation

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates a success response whose body is missing the
// expected choices list.
var ErrMalformedResponse = errors.New("invalid response format from AI service")

// UpstreamError is a non-success response from the AI service. Body carries
// the raw error payload for diagnostics and is not parsed further.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI service request failed: %d", e.StatusCode)
}

// ProcessingError wraps any transport- or parse-level failure other than an
// explicit upstream rejection, so callers only ever see two failure shapes.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("failed to process AI service response: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
