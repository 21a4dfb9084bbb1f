package worldbank

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all attempts for one page failed.
	// Callers treat it as "no data for this page", not as a hard failure
	// of the whole run.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrShortResponse is returned when a response envelope has fewer than
	// two top-level elements (the API reports errors this way).
	ErrShortResponse = errors.New("response envelope has fewer than two elements")

	// ErrContextCancelled is returned when the context is cancelled during
	// a backoff wait.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassDecode represents malformed response bodies.
	ErrorClassDecode ErrorClass = "decode"
)

// FetchError carries the classification and HTTP context of a failed page
// request.
type FetchError struct {
	StatusCode int
	Class      ErrorClass
	URL        string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s error: %s: %v", e.Class, e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// classify categorizes a failed request for observability. Every class is
// retried within the page's retry budget; the class only drives logging
// and metrics.
func classify(statusCode int, err error) ErrorClass {
	switch {
	case statusCode >= 500:
		return ErrorClassServer
	case statusCode >= 400:
		return ErrorClassClient
	case err != nil && statusCode == 0:
		return ErrorClassNetwork
	default:
		return ErrorClassDecode
	}
}
