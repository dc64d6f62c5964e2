package fetcher

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the fetch pipeline.
var (
	// ErrNotFound means the remote resource does not exist (HTTP 404).
	// Callers should treat it as "nothing to report", not as a failure.
	ErrNotFound = errors.New("resource not found")

	// ErrAuthFailed means the request was rejected with HTTP 401 even
	// after the unauthenticated retry.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited means the remote API rejected the request with
	// HTTP 403. Never retried.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrTooManyRedirects means a redirect chain exceeded the limit.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// IsAbsent reports whether err marks a resource that does not exist, the
// expected "nothing to report" outcome rather than a failed call.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StatusError is returned for any response status the pipeline does not
// recognize.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// MalformedResponseError wraps a decode failure of a 200 response body.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
