package credential

import (
	"errors"
	"fmt"
	"strings"
)

// Verification error codes. These travel in per-item results and API
// responses, so their spelling is part of the contract.
const (
	// ErrCodeNotFound indicates the referenced credential does not exist.
	ErrCodeNotFound = "CREDENTIAL_NOT_FOUND"

	// ErrCodeRevoked indicates the credential has been revoked.
	ErrCodeRevoked = "CREDENTIAL_REVOKED"

	// ErrCodeExpired indicates status expired, or now >= valid_until.
	ErrCodeExpired = "CREDENTIAL_EXPIRED"

	// ErrCodeSuspended indicates the credential is administratively suspended.
	ErrCodeSuspended = "CREDENTIAL_SUSPENDED"

	// ErrCodeNotYetValid indicates now < valid_from.
	ErrCodeNotYetValid = "CREDENTIAL_NOT_YET_VALID"

	// ErrCodeSignatureInvalid indicates signature verification failed. All
	// signature failure causes collapse into this one code.
	ErrCodeSignatureInvalid = "INVALID_SIGNATURE"

	// ErrCodeIssuerNotFound indicates the issuer record could not be resolved.
	ErrCodeIssuerNotFound = "ISSUER_NOT_FOUND"

	// ErrCodeMissingInput indicates an item carried neither a credential id
	// nor a payload, or a payload missing required members.
	ErrCodeMissingInput = "MISSING_INPUT"

	// ErrCodeInvalidRequest indicates a malformed top-level request.
	ErrCodeInvalidRequest = "INVALID_REQUEST"

	// ErrCodeInternal indicates an infrastructure failure. The message
	// carries a correlation id, never the underlying cause.
	ErrCodeInternal = "INTERNAL_ERROR"
)

// Error is a verification error with a stable code.
type Error struct {
	// Code is one of the ErrCode* constants.
	Code string

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewError creates an Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError creates an Error that wraps an underlying cause.
func WrapError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Predefined sentinel errors for common cases.
// Use these with errors.Is() for type-safe error checking.
var (
	ErrNotFound         = NewError(ErrCodeNotFound, "credential not found")
	ErrRevoked          = NewError(ErrCodeRevoked, "credential has been revoked")
	ErrExpired          = NewError(ErrCodeExpired, "credential has expired")
	ErrSuspended        = NewError(ErrCodeSuspended, "credential is suspended")
	ErrNotYetValid      = NewError(ErrCodeNotYetValid, "credential is not yet valid")
	ErrSignatureInvalid = NewError(ErrCodeSignatureInvalid, "signature verification failed")
	ErrIssuerNotFound   = NewError(ErrCodeIssuerNotFound, "issuer not found")
	ErrMissingInput     = NewError(ErrCodeMissingInput, "request item has no credential id or payload")
	ErrInvalidRequest   = NewError(ErrCodeInvalidRequest, "request is malformed")
	ErrInternal         = NewError(ErrCodeInternal, "internal verification error")
)

// AsError checks if err is an Error and returns it if so.
func AsError(err error) (*Error, bool) {
	var credErr *Error
	if errors.As(err, &credErr) {
		return credErr, true
	}
	return nil, false
}

// CodeOf extracts the error code from an Error, or returns empty string.
func CodeOf(err error) string {
	if credErr, ok := AsError(err); ok {
		return credErr.Code
	}
	return ""
}

// Describe returns the standard human-readable message for a code.
func Describe(code string) string {
	switch code {
	case ErrCodeNotFound:
		return ErrNotFound.Message
	case ErrCodeRevoked:
		return ErrRevoked.Message
	case ErrCodeExpired:
		return ErrExpired.Message
	case ErrCodeSuspended:
		return ErrSuspended.Message
	case ErrCodeNotYetValid:
		return ErrNotYetValid.Message
	case ErrCodeSignatureInvalid:
		return ErrSignatureInvalid.Message
	case ErrCodeIssuerNotFound:
		return ErrIssuerNotFound.Message
	case ErrCodeMissingInput:
		return ErrMissingInput.Message
	case ErrCodeInvalidRequest:
		return ErrInvalidRequest.Message
	case ErrCodeInternal:
		return ErrInternal.Message
	default:
		if status, ok := strings.CutPrefix(code, "CREDENTIAL_"); ok {
			return fmt.Sprintf("credential status is %s", strings.ToLower(status))
		}
		return "credential verification failed"
	}
}
