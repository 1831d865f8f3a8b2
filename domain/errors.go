package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// BusinessCode identifies a business-level failure in API error responses.
// Codes are stable and exposed to clients as businessErrorCode.
type BusinessCode int

const (
	CodeNone                      BusinessCode = 0
	CodeAccountLocked             BusinessCode = 302
	CodeAccountDisabled           BusinessCode = 303
	CodeBadCredentials            BusinessCode = 304
	CodeTokenInvalid              BusinessCode = 305
	CodeUserAlreadyExists         BusinessCode = 306
	CodeProductNotFound           BusinessCode = 307
	CodeProductCodeExists         BusinessCode = 308
	CodeProductOperationForbidden BusinessCode = 309
	CodeProductStatusInvalid      BusinessCode = 310
	CodeOptimisticLockFailure     BusinessCode = 311
	CodeUserNotFound              BusinessCode = 312
)

// Description returns the client-facing description for a business code.
func (c BusinessCode) Description() string {
	switch c {
	case CodeAccountLocked:
		return "User account is locked"
	case CodeAccountDisabled:
		return "User account is disabled"
	case CodeBadCredentials:
		return "Login and / or Password is incorrect"
	case CodeTokenInvalid:
		return "Invalid or expired token"
	case CodeUserAlreadyExists:
		return "User with this email already exists"
	case CodeProductNotFound:
		return "Product not found"
	case CodeProductCodeExists:
		return "Product code already exists"
	case CodeProductOperationForbidden:
		return "Access denied: only the reserved admin account can perform this operation"
	case CodeProductStatusInvalid:
		return "Invalid inventory status. Allowed: INSTOCK, LOWSTOCK, OUTOFSTOCK"
	case CodeOptimisticLockFailure:
		return "Optimistic lock failure: product was updated by another user"
	case CodeUserNotFound:
		return "User not found"
	default:
		return "Internal error, please contact the admin"
	}
}

// HTTPStatus maps a business code to the HTTP status it is served with.
func (c BusinessCode) HTTPStatus() int {
	switch c {
	case CodeAccountLocked, CodeAccountDisabled, CodeBadCredentials:
		return http.StatusUnauthorized
	case CodeTokenInvalid, CodeProductStatusInvalid:
		return http.StatusBadRequest
	case CodeUserAlreadyExists, CodeProductCodeExists, CodeOptimisticLockFailure:
		return http.StatusConflict
	case CodeProductOperationForbidden:
		return http.StatusForbidden
	case CodeProductNotFound, CodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a business error carrying the code used to build the uniform
// error envelope. Components raise these; only the HTTP layer formats them.
type Error struct {
	Code    BusinessCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a business error.
func NewError(code BusinessCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a business classification.
func WrapError(code BusinessCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// AuthenticationError signals bad credentials or an unknown principal.
func AuthenticationError(message string) *Error {
	return NewError(CodeBadCredentials, message)
}

// TokenError signals an invalid, malformed or expired token or activation code.
func TokenError(message string) *Error {
	return NewError(CodeTokenInvalid, message)
}

// Common sentinel errors shared across repositories and use cases.
var (
	ErrUserNotFound       = NewError(CodeUserNotFound, "user not found")
	ErrUserAlreadyExists  = NewError(CodeUserAlreadyExists, "user with email already exists")
	ErrProductNotFound    = NewError(CodeProductNotFound, "product not found")
	ErrProductCodeExists  = NewError(CodeProductCodeExists, "product code already exists")
	ErrOptimisticLock     = NewError(CodeOptimisticLockFailure, "product was updated concurrently")
	ErrActivationNotFound = TokenError("invalid activation code")
)

// IsCode reports whether err carries the given business code.
func IsCode(err error, code BusinessCode) bool {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Code == code
	}
	return false
}

// CodeOf extracts the business code from err, or CodeNone for
// uncategorized errors.
func CodeOf(err error) BusinessCode {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Code
	}
	return CodeNone
}
