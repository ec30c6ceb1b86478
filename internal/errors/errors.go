package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrContactNotFound is returned when a contact does not exist or belongs
	// to a different owner. The two cases are indistinguishable on purpose.
	ErrContactNotFound = errors.New("contact not found")
	// ErrDuplicateEmail is returned when a contact email already exists for
	// the same owner, or when a user registers an already taken email.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password. Callers must not be able to tell which one happened.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized is returned when a token is missing, malformed,
	// expired, or fails signature, issuer, or audience verification.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStorageTimeout is returned when a storage operation exceeds its
	// deadline. Safe to retry, unlike ErrContactNotFound.
	ErrStorageTimeout = errors.New("storage operation timed out")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unexpected errors become
// an opaque 500 so internal messages never leak to callers.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrContactNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "CONTACT_NOT_FOUND")
	case errors.Is(err, ErrDuplicateEmail):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "DUPLICATE_EMAIL")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrStorageTimeout):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "STORAGE_TIMEOUT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
