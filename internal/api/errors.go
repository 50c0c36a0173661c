package api

import (
	"errors"

	"github.com/steemit/circlemind/internal/apperr"
)

// Standard JSON-RPC error codes
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternalError  = -32603
	ErrServerError    = -32000
)

// Application error codes, one per apperr kind
const (
	ErrNotFound  = 40400
	ErrForbidden = 40300
	ErrConflict  = 40900
)

// ErrorData is attached to every application error so clients can branch without parsing
// messages.
type ErrorData struct {
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
}

// toRPCError maps a handler error to its JSON-RPC error. Errors without a kind are internal and
// their message is not exposed.
func toRPCError(err error) *JSONRPCError {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return &JSONRPCError{
			Code:    ErrServerError,
			Message: "Server error",
			Data:    ErrorData{Status: apperr.KindInternal.HTTPStatus()},
		}
	}

	code := ErrServerError
	switch appErr.Kind {
	case apperr.KindValidation, apperr.KindOutOfRangePage:
		code = ErrInvalidParams
	case apperr.KindNotFound:
		code = ErrNotFound
	case apperr.KindForbidden:
		code = ErrForbidden
	case apperr.KindConflict:
		code = ErrConflict
	}
	return &JSONRPCError{
		Code:    code,
		Message: appErr.Message,
		Data:    ErrorData{Status: appErr.Kind.HTTPStatus(), Code: appErr.Code},
	}
}
