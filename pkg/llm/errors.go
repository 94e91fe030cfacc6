package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies completion service failures.
type ErrorType string

const (
	ErrorTypeAuth     ErrorType = "auth"     // invalid credentials
	ErrorTypeEndpoint ErrorType = "endpoint" // unreachable or failing endpoint
	ErrorTypeTimeout  ErrorType = "timeout"  // deadline exceeded
	ErrorTypeResponse ErrorType = "response" // malformed or empty response
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error represents a structured completion service error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int // HTTP status code if applicable
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError categorizes an error from the completion service into a
// structured Error carrying the HTTP-equivalent status where extractable.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	switch {
	case strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key"):
		return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Cause: err, StatusCode: statusCode}

	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "context canceled"):
		return &Error{Type: ErrorTypeTimeout, Message: "request timeout", Retryable: true, Cause: err, StatusCode: statusCode}

	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return &Error{Type: ErrorTypeEndpoint, Message: "connection failed", Retryable: true, Cause: err, StatusCode: statusCode}

	case strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit"):
		return &Error{Type: ErrorTypeEndpoint, Message: "rate limited", Retryable: true, Cause: err, StatusCode: statusCode}

	case statusCode >= 500:
		return &Error{Type: ErrorTypeEndpoint, Message: "server error", Retryable: true, Cause: err, StatusCode: statusCode}

	default:
		return &Error{Type: ErrorTypeUnknown, Message: "completion service error", Cause: err, StatusCode: statusCode}
	}
}

// IsRetryable returns true if the error is a retryable completion failure.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}
