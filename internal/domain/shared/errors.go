package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for callers deciding whether to retry,
// surface or alert.
type ErrorKind string

const (
	// KindValidation is bad input or a violated business rule. Never retried.
	KindValidation ErrorKind = "validation"
	// KindConflict is a lost race with a concurrent writer. The caller may
	// retry the whole operation from fresh state.
	KindConflict ErrorKind = "conflict"
	// KindInvariant is a data-integrity fault such as mutating a sealed
	// document or reusing an identifier.
	KindInvariant ErrorKind = "invariant"
	// KindNotFound means the addressed resource does not exist for the caller
	KindNotFound ErrorKind = "not_found"
	// KindForbidden is an entitlement or permission denial
	KindForbidden ErrorKind = "forbidden"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is matches another DomainError with the same code, so package-level
// sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithField returns a copy of the error naming the offending field
func (e *DomainError) WithField(field string) *DomainError {
	cp := *e
	cp.Field = field
	return &cp
}

// NewDomainError creates a validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewValidationError creates a ValidationError naming the offending field
func NewValidationError(code, field, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Field: field, Message: message}
}

// NewConflictError creates a ConflictError
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

// NewInvariantViolation creates an InvariantViolation
func NewInvariantViolation(code, message string) *DomainError {
	return &DomainError{Kind: KindInvariant, Code: code, Message: message}
}

// NewForbiddenError creates an entitlement denial
func NewForbiddenError(code, message string) *DomainError {
	return &DomainError{Kind: KindForbidden, Code: code, Message: message}
}

func kindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindValidation
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConflict
}

// IsInvariant reports whether err is an InvariantViolation
func IsInvariant(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindInvariant
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsForbidden reports whether err is an entitlement or permission denial
func IsForbidden(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindForbidden
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Resource not found"}
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewConflictError("CONCURRENT_MODIFICATION", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
