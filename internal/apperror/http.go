package apperror

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error kind to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateKey:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage returns the message safe to show callers. The wrapped cause
// is appended only when includeDetails is set (non-production).
func ClientMessage(err error, includeDetails bool) string {
	var e *Error
	if !errors.As(err, &e) {
		if includeDetails {
			return err.Error()
		}
		return "internal server error"
	}
	if includeDetails && e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}
