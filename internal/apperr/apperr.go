// Package apperr defines the error taxonomy shared by the social services and the API layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers that need to map it to a transport status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindOutOfRangePage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindOutOfRangePage:
		return "out_of_range_page"
	default:
		return "internal"
	}
}

// HTTPStatus is the status an HTTP transport would use for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindOutOfRangePage:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error. Two errors match under errors.Is when
// they carry the same non-empty Code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// Sentinel codes.
var (
	ErrBlocked               = &Error{Kind: KindForbidden, Code: "BLOCKED", Message: "blocked"}
	ErrNestedReplyNotAllowed = &Error{Kind: KindValidation, Code: "NESTED_REPLY_NOT_ALLOWED", Message: "Replies are only allowed on top-level comments"}
	ErrOutOfRangePage        = &Error{Kind: KindOutOfRangePage, Code: "OUT_OF_RANGE_PAGE", Message: "page out of range"}
)

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION", Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, e.g. NotFound("Post").
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: entity + " not found"}
}

// NotFoundf is NotFound with a caller-supplied message.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: "CONFLICT", Message: fmt.Sprintf(format, args...)}
}

// Blocked is a Forbidden error that matches ErrBlocked.
func Blocked(message string) *Error {
	return &Error{Kind: KindForbidden, Code: ErrBlocked.Code, Message: message}
}

// NestedReply is returned when replying to a reply.
func NestedReply() *Error {
	e := *ErrNestedReplyNotAllowed
	return &e
}

// OutOfRangePage names the requested page and the last page that exists.
func OutOfRangePage(requested, max int) *Error {
	return &Error{
		Kind:    KindOutOfRangePage,
		Code:    ErrOutOfRangePage.Code,
		Message: fmt.Sprintf("Requested page %d exceeds the maximum page %d", requested, max),
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
