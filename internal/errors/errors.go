package errors

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Taxonomy codes returned to clients.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeBadRequest   = "BAD_REQUEST"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// Reasons attached to BAD_REQUEST and UNAUTHORIZED failures.
const (
	ReasonExpired              = "EXPIRED"
	ReasonInvalid              = "INVALID"
	ReasonTooManyAttempts      = "TOO_MANY_ATTEMPTS"
	ReasonCaptchaFailed        = "CAPTCHA_FAILED"
	ReasonNoEligibleCandidates = "NO_ELIGIBLE_CANDIDATES"
	ReasonInvalidSchema        = "INVALID_SCHEMA"
	ReasonNoSession            = "NO_SESSION"
	ReasonUnknownUser          = "UNKNOWN_USER"
	ReasonNotAdmin             = "NOT_ADMIN"
	ReasonNoPermission         = "NO_PERMISSION"
)

var (
	// ErrUnauthorized is returned when the caller is not allowed to run a procedure.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when a user or survey row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest is returned for validation failures.
	ErrBadRequest = errors.New("bad request")
	// ErrCacheCorrupt is returned when a cache key is present but holds no entity.
	ErrCacheCorrupt = errors.New("cache entry present but empty")

	// ErrOTPExpired is returned when the verification token is past its expiry.
	ErrOTPExpired = &ReasonError{Kind: ErrBadRequest, Reason: ReasonExpired, Message: "Verification code has expired"}
	// ErrOTPInvalid is returned when the code does not match or no token exists.
	ErrOTPInvalid = &ReasonError{Kind: ErrBadRequest, Reason: ReasonInvalid, Message: "Invalid verification code"}
	// ErrOTPTooManyAttempts is returned once the attempt ceiling is exceeded.
	ErrOTPTooManyAttempts = &ReasonError{Kind: ErrBadRequest, Reason: ReasonTooManyAttempts, Message: "Too many attempts, request a new code"}
	// ErrCaptchaFailed is returned when captcha verification fails.
	ErrCaptchaFailed = &ReasonError{Kind: ErrBadRequest, Reason: ReasonCaptchaFailed, Message: "Failed captcha. Please try again."}
	// ErrNoEligibleCandidates is returned when the lucky draw pool is empty.
	ErrNoEligibleCandidates = &ReasonError{Kind: ErrBadRequest, Reason: ReasonNoEligibleCandidates, Message: "No users satisfy condition"}
)

// ReasonError is a taxonomy error carrying a machine readable reason.
type ReasonError struct {
	Kind    error
	Reason  string
	Message string
}

func (e *ReasonError) Error() string {
	return e.Message
}

// Unwrap exposes the taxonomy kind to errors.Is.
func (e *ReasonError) Unwrap() error {
	return e.Kind
}

// Unauthorized builds an UNAUTHORIZED error with a reason.
func Unauthorized(reason string) error {
	return &ReasonError{Kind: ErrUnauthorized, Reason: reason, Message: "unauthorized"}
}

// InvalidSchema builds a BAD_REQUEST error for malformed survey or answer payloads.
func InvalidSchema(message string) error {
	return &ReasonError{Kind: ErrBadRequest, Reason: ReasonInvalidSchema, Message: message}
}

// BadRequest builds a BAD_REQUEST error with a client-facing message.
func BadRequest(message string) error {
	return &ReasonError{Kind: ErrBadRequest, Message: message}
}

// NotFound builds a NOT_FOUND error for the named entity.
func NotFound(entity string) error {
	return &ReasonError{Kind: ErrNotFound, Message: entity + " not found"}
}

// IsNotFound reports whether err means a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Reason     string
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
		Error:  e.Message,
		Code:   e.Code,
		Reason: e.Reason,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var out *HTTPError
	switch {
	case errors.Is(err, ErrUnauthorized):
		out = NewHTTPError(http.StatusUnauthorized, "unauthorized", CodeUnauthorized)
	case errors.Is(err, ErrBadRequest):
		out = NewHTTPError(http.StatusBadRequest, err.Error(), CodeBadRequest)
	case IsNotFound(err):
		out = NewHTTPError(http.StatusNotFound, "record not found", CodeNotFound)
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", CodeInternal)
	}

	var reasonErr *ReasonError
	if errors.As(err, &reasonErr) {
		out.Reason = reasonErr.Reason
		if out.Code != CodeUnauthorized {
			out.Message = reasonErr.Message
		}
	}
	return out
}
