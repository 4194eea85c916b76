package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrUserAlreadyExists is returned when an active user already owns the email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrPasswordTooLong is returned when a signup password exceeds what the hash accepts.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
	// ErrMailDelivery is returned when the verification email could not be sent.
	ErrMailDelivery = errors.New("failed to deliver verification email")
	// ErrInvalidOrExpiredOTP covers a code that was never issued, has expired or does not match.
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired OTP")
	// ErrRegistrationSessionExpired is returned when no pending registration exists for a verified code.
	ErrRegistrationSessionExpired = errors.New("registration session expired, please sign up again")
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrInvalidCredentials is returned for an unknown email and for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when an authenticated subject no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

const (
	CodeInvalidEmail               = "INVALID_EMAIL"
	CodeUserAlreadyExists          = "USER_ALREADY_EXISTS"
	CodePasswordTooLong            = "PASSWORD_TOO_LONG"
	CodeMailDeliveryFailed         = "MAIL_DELIVERY_FAILED"
	CodeInvalidOrExpiredOTP        = "INVALID_OR_EXPIRED_OTP"
	CodeRegistrationSessionExpired = "REGISTRATION_SESSION_EXPIRED"
	CodeMissingCredentials         = "MISSING_CREDENTIALS"
	CodeInvalidCredentials         = "INVALID_CREDENTIALS"
	CodeUserNotFound               = "USER_NOT_FOUND"
	CodeInvalidRequest             = "INVALID_REQUEST"
	CodeValidation                 = "VALIDATION_ERROR"
	CodeRateLimited                = "RATE_LIMITED"
	CodeUnauthorized               = "UNAUTHORIZED"
	CodeNotFound                   = "NOT_FOUND"
	CodeInternal                   = "INTERNAL_ERROR"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidEmail, CodeInvalidEmail},
	{ErrUserAlreadyExists, CodeUserAlreadyExists},
	{ErrPasswordTooLong, CodePasswordTooLong},
	{ErrMailDelivery, CodeMailDeliveryFailed},
	{ErrInvalidOrExpiredOTP, CodeInvalidOrExpiredOTP},
	{ErrRegistrationSessionExpired, CodeRegistrationSessionExpired},
	{ErrMissingCredentials, CodeMissingCredentials},
	{ErrInvalidCredentials, CodeInvalidCredentials},
	{ErrUserNotFound, CodeUserNotFound},
}

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

// Code returns the machine-readable code of a categorized error.
// ok is false for the uncategorized bucket.
func Code(err error) (code string, ok bool) {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code, true
		}
	}
	return "", false
}

// Categorized reports whether err belongs to the known auth taxonomy.
func Categorized(err error) bool {
	_, ok := Code(err)
	return ok
}

// MapAuthError maps an auth-flow failure to the endpoint's failure status.
// Categorized errors keep their sentinel message; anything else is reported
// with a generic message so store and cache internals never leak.
func MapAuthError(err error, failureStatus int) *HTTPError {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return NewHTTPError(failureStatus, c.err.Error(), c.code)
		}
	}
	return NewHTTPError(failureStatus, "request could not be completed", CodeInternal)
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), CodeUserNotFound)
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrMissingCredentials):
		return MapAuthError(err, http.StatusUnauthorized)
	case Categorized(err):
		return MapAuthError(err, http.StatusBadRequest)
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", CodeInternal)
	}
}
