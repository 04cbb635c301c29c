// Package apperror defines the typed errors returned to API clients.
package apperror

import (
	"errors"
	"net/http"
)

// Stable machine-readable codes. Clients branch on these, so never rename one.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeTokenRequired       = "TOKEN_REQUIRED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeAccountDeactivated  = "ACCOUNT_DEACTIVATED"
	CodeSessionInvalid      = "SESSION_INVALID"
	CodeAuthRequired        = "AUTH_REQUIRED"
	CodeClubIDRequired      = "CLUB_ID_REQUIRED"
	CodeNotClubMember       = "NOT_CLUB_MEMBER"
	CodeMembershipInactive  = "MEMBERSHIP_INACTIVE"
	CodeInsufficientPerms   = "INSUFFICIENT_PERMISSIONS"
	CodeClubOwnershipReq    = "CLUB_OWNERSHIP_REQUIRED"
	CodeUserExists          = "USER_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidCurrentPass  = "INVALID_CURRENT_PASSWORD"
	CodeNoUpdateFields      = "NO_UPDATE_FIELDS"
	CodeRateLimitExceeded   = "USER_RATE_LIMIT_EXCEEDED"
	CodeDuplicateField      = "DUPLICATE_FIELD"
	CodeForeignKeyViolation = "FOREIGN_KEY_VIOLATION"
	CodeRequiredField       = "REQUIRED_FIELD_MISSING"
	CodeInvalidDataFormat   = "INVALID_DATA_FORMAT"
	CodeInvalidJSON         = "INVALID_JSON"
	CodeRequestTooLarge     = "REQUEST_TOO_LARGE"
	CodeNotFound            = "NOT_FOUND"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal            = "INTERNAL_SERVER_ERROR"
)

// Error is an API-facing failure with an HTTP status and a stable code.
type Error struct {
	Status  int
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy carrying details.
func (e *Error) WithDetails(details interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy carrying the underlying cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(message, code string) *Error {
	return New(http.StatusBadRequest, orDefault(code, "BAD_REQUEST"), message)
}

func Unauthorized(message, code string) *Error {
	return New(http.StatusUnauthorized, orDefault(code, "UNAUTHORIZED"), message)
}

func Forbidden(message, code string) *Error {
	return New(http.StatusForbidden, orDefault(code, "FORBIDDEN"), message)
}

func NotFound(message, code string) *Error {
	return New(http.StatusNotFound, orDefault(code, CodeNotFound), message)
}

func Conflict(message, code string) *Error {
	return New(http.StatusConflict, orDefault(code, "CONFLICT"), message)
}

func TooManyRequests(message, code string) *Error {
	return New(http.StatusTooManyRequests, orDefault(code, "TOO_MANY_REQUESTS"), message)
}

func Internal(message string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: message, Err: err}
}

func ServiceUnavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, CodeServiceUnavailable, message)
}

// Validation builds the VALIDATION_ERROR response for a set of field failures.
func Validation(details interface{}) *Error {
	return BadRequest("Validation failed", CodeValidation).WithDetails(details)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func orDefault(code, fallback string) string {
	if code == "" {
		return fallback
	}
	return code
}
