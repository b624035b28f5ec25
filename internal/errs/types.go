package errs

import (
	"net/http"
)

// Client-facing messages.
const (
	MessageMethodNotAllowed = "Method not allowed"
	MessageUnauthorized     = "Unauthorized: Invalid or missing API key"
	MessageSynthesisFailed  = "Failed to generate speech"
)

// CodeSynthesisFailed labels every failure collapsed into the generic 500.
const CodeSynthesisFailed = "SYNTHESIS_FAILED"

func statusCode(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

// NewMethodNotAllowedError creates the 405 returned for any method but POST and OPTIONS.
func NewMethodNotAllowedError() *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusMethodNotAllowed),
		Status:  http.StatusMethodNotAllowed,
		Message: MessageMethodNotAllowed,
	}
}

// NewUnauthorizedError creates a 401 Unauthorized HTTPError.
func NewUnauthorizedError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusUnauthorized),
		Status:  http.StatusUnauthorized,
		Message: message,
	}
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
func NewBadRequestError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusBadRequest),
		Status:  http.StatusBadRequest,
		Message: message,
	}
}

// NewMissingParameterError creates the 400 for a required request field that is absent.
//
// Example:
//
//	NewMissingParameterError("prompt") -> "Missing prompt parameter"
func NewMissingParameterError(field string) *HTTPError {
	err := NewBadRequestError("Missing " + field + " parameter")
	err.Code = "MISSING_PARAMETER"
	return err
}

// NewSynthesisError creates the catch-all 500.
//
// Malformed input and upstream failures are deliberately not told apart:
// both yield the same message, with the cause attached as details.
func NewSynthesisError(cause error) *HTTPError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}

	return &HTTPError{
		Code:    CodeSynthesisFailed,
		Status:  http.StatusInternalServerError,
		Message: MessageSynthesisFailed,
		Details: details,
		cause:   cause,
	}
}

// NewHTTPError creates an HTTPError for any other status, using the status text as message
// when message is empty.
func NewHTTPError(status int, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(status)
	}

	return &HTTPError{
		Code:    statusCode(status),
		Status:  status,
		Message: message,
	}
}
