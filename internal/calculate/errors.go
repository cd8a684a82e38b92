package calculate

import (
	"errors"
	"fmt"
)

// ErrTimedOut reports that the calculate service was still pending when the
// overall wait budget ran out. It is a distinct outcome, not a service fault.
var ErrTimedOut = errors.New("calculation timed out")

// ValidationError reports a malformed calculation request, rejected before
// any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid calculation request: " + e.Reason
}

// SubmissionError reports that the calculate service rejected or never
// received a calculation request. Polling must not start after one.
type SubmissionError struct {
	Cause error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("calculation submit failed: %v", e.Cause)
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// TransportError reports a network failure or timeout on a single poll
// attempt. The attempt is not retried and the poll ends.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("poll request failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ProtocolError reports an unexpected status code from the calculate
// service.
type ProtocolError struct {
	StatusCode int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected status %d from calculate service", e.StatusCode)
}
