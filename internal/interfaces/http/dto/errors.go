package dto

import (
	"errors"
	"net/http"

	"github.com/fatoora/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep their own codes
// (PROFILE_INCOMPLETE, OFFER_EXPIRED, TRIAL_ENDED, ...).
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// KindHTTPStatus maps a domain error kind to its HTTP status
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation: http.StatusUnprocessableEntity,
	shared.KindConflict:   http.StatusConflict,
	shared.KindInvariant:  http.StatusInternalServerError,
	shared.KindNotFound:   http.StatusNotFound,
	shared.KindForbidden:  http.StatusForbidden,
}

// ErrorStatus resolves the HTTP status and error info for err. Errors that
// are not domain errors become an opaque 500.
func ErrorStatus(err error) (int, ErrorInfo) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, ErrorInfo{
			Code:    ErrCodeInternal,
			Message: "An unexpected error occurred",
		}
	}
	status, ok := KindHTTPStatus[de.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, ErrorInfo{Code: de.Code, Message: de.Message, Field: de.Field}
}
