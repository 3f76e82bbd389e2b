package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrNotFound is returned when a single-item lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassValidation represents malformed query parameters (4xx).
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassNotFound represents a single-item lookup miss (404).
	ErrorClassNotFound ErrorClass = "not_found"
)

// APIError represents a catalog API error with its classification.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("catalog %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Retriable reports whether the error class is worth retrying.
func (e *APIError) Retriable() bool {
	return shouldRetry(e.Class)
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassNetwork:
		// Network errors are transient
		return true
	case ErrorClassServer:
		// 5xx server errors should be retried
		return true
	case ErrorClassValidation, ErrorClassNotFound:
		// The request itself is wrong; retrying cannot help
		return false
	default:
		return false
	}
}

// classify categorizes an error for observability and retry handling.
func classify(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ErrorClassNetwork
}
