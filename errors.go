package scraper

import (
	"errors"
	"fmt"
)

// ErrorKind classifies scraper failures so callers can map them to responses
type ErrorKind int

const (
	// KindInvalidURL means the input could not be normalized into an absolute http(s) URL
	KindInvalidURL ErrorKind = iota + 1
	// KindFetchFailed means the remote server answered with a non-2xx status
	KindFetchFailed
	// KindTimeout means no response arrived before the fetch deadline
	KindTimeout
	// KindNetwork covers DNS, connection, TLS and other transport failures
	KindNetwork
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindFetchFailed:
		return "fetch_failed"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network_error"
	default:
		return "unknown"
	}
}

// Sentinel errors matched by errors.Is against any *Error of the same kind
var (
	ErrInvalidURL  = errors.New("invalid URL")
	ErrFetchFailed = errors.New("fetch failed")
	ErrTimeout     = errors.New("request timeout")
	ErrNetwork     = errors.New("network error")
)

// Error is returned by the normalizer and fetcher. StatusCode is only set for KindFetchFailed.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidURL:
		return e.Kind == KindInvalidURL
	case ErrFetchFailed:
		return e.Kind == KindFetchFailed
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

// AsError extracts a *Error from err's chain
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func invalidURLError(cause error) *Error {
	return &Error{Kind: KindInvalidURL, Message: "invalid URL format", Err: cause}
}

func fetchFailedError(statusCode int, statusText string) *Error {
	return &Error{
		Kind:       KindFetchFailed,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("failed to fetch URL: %d %s", statusCode, statusText),
	}
}

func timeoutError(cause error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: "request timeout - the website took too long to respond",
		Err:     cause,
	}
}

func networkError(cause error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("failed to scrape URL: %v", cause),
		Err:     cause,
	}
}
