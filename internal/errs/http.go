// Package errs define custom error types and utilities.
//
// Its purpose is to create specific error structures
// (HTTPError for API responses) so that clients receive
// consistent error bodies:
//
//	{ "error": "Missing prompt parameter" }
//	{ "error": "Failed to generate speech", "details": "upstream returned 502" }
//
// - Return consistent error shapes to API clients (JSON).
// - Keep a machine-friendly code next to each error for logs.
// - Provide errors that play nicely with Go's standard errors package.
package errs

import "strings"

// HTTPError is the main custom error type for API responses.
//
// Only Message and Details are serialized; Status selects the HTTP
// status code and Code is a machine-friendly label used in logs.
type HTTPError struct {
	Code    string `json:"-"`
	Status  int    `json:"-"`
	Message string `json:"error"`

	// Details carries the underlying error message for diagnostics.
	Details string `json:"details,omitempty"`

	cause error
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap exposes the error that caused this one, if any.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *HTTPError with the same status and code.
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	if !ok {
		return false
	}

	return t.Status == e.Status && t.Code == e.Code
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Status:  e.Status,
		Message: message,
		Details: e.Details,
		cause:   e.cause,
	}
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
