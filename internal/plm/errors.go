package plm

import (
	"errors"
	"fmt"
)

// ErrAuthExpired is surfaced when the backend rejects the session token
// and the single re-authentication retry did not recover it. Callers
// should prompt the user to log in again.
var ErrAuthExpired = errors.New("session expired, please log in again")

// ErrConflict maps HTTP 409 responses.
var ErrConflict = errors.New("the request conflicts with the current state of the record")

// ValidationError carries the first structured validation message from
// an HTTP 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// APIError is the catch-all for non-2xx statuses outside the explicit
// taxonomy. It keeps the raw body for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed with status %d: %s", e.StatusCode, e.Body)
}

// FeatureUnavailableError means every candidate endpoint for a
// workspace-dependent feature was exhausted.
type FeatureUnavailableError struct {
	Feature  string
	Guidance string
}

func (e *FeatureUnavailableError) Error() string {
	return fmt.Sprintf("%s is not available in this workspace: %s", e.Feature, e.Guidance)
}

// TransportError wraps network failures and malformed JSON so callers
// can distinguish them from backend-reported statuses.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryableTransport reports whether err is a transport-level failure
// worth retrying. Taxonomy errors derived from backend statuses are
// never retryable here.
func IsRetryableTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
