package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when no user matches the phone number or id.
	ErrUserNotFound = errors.New("user not found")
	// ErrIncorrectOTP is returned when the submitted code does not match the stored hash.
	ErrIncorrectOTP = errors.New("incorrect otp")
	// ErrOTPExpired is returned when the code matches but its window has passed.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPDelivery is returned when the SMS or email could not be sent.
	ErrOTPDelivery = errors.New("otp delivery failed")
	// ErrEmailMismatch is returned when verifying an email other than the stored one.
	ErrEmailMismatch = errors.New("email does not match")
	// ErrEmailInUse is returned when another user already owns the email.
	ErrEmailInUse = errors.New("email already in use")
	// ErrUnauthorized is returned for a missing, invalid or superseded token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionExpired is returned when the refresh token no longer verifies.
	ErrSessionExpired = errors.New("session expired")
	// ErrTokenUserMismatch is returned when logout finds no user holding the token.
	ErrTokenUserMismatch = errors.New("token does not belong to any user")
	// ErrUserForTokenNotFound is returned when the token's user no longer exists.
	ErrUserForTokenNotFound = errors.New("user for token not found")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct is returned when a product payload breaks catalog rules.
	ErrInvalidProduct = errors.New("invalid product")
)

// Codes used in responses that are not tied to a sentinel error.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeMissingBody      = "MISSING_REQUIRED_FIELDS_IN_REQUEST_BODY"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
)

// HTTPError represents an HTTP error with status code and message code.
// Data carries optional details such as per-field validation failures.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Data       any
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

// WithData returns a copy of e carrying details.
func (e *HTTPError) WithData(data any) *HTTPError {
	cp := *e
	cp.Data = data
	return &cp
}

var mappings = []struct {
	err    error
	status int
	code   string
}{
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrIncorrectOTP, http.StatusBadRequest, "INCORRECT_OTP"},
	{ErrOTPExpired, http.StatusBadRequest, "OTP_EXPIRED"},
	{ErrOTPDelivery, http.StatusInternalServerError, "OTP_SEND_FAILED"},
	{ErrEmailMismatch, http.StatusBadRequest, "EMAIL_MISMATCH"},
	{ErrEmailInUse, http.StatusConflict, "EMAIL_ALREADY_IN_USE"},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED"},
	{ErrTokenUserMismatch, http.StatusUnauthorized, "TOKEN_USER_MISMATCH"},
	{ErrUserForTokenNotFound, http.StatusUnauthorized, "USER_FOR_TOKEN_NOT_FOUND"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{ErrInvalidProduct, http.StatusBadRequest, "INVALID_PRODUCT"},
}

// MapErrorToHTTP maps domain errors, wrapped or not, to HTTP errors.
// Anything unknown becomes a 500 that hides the underlying message.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", CodeInternal)
}

// IsInternal reports whether err maps to a server-side failure.
func IsInternal(err error) bool {
	return MapErrorToHTTP(err).StatusCode >= http.StatusInternalServerError
}
