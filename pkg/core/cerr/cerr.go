package cerr

import (
	"fmt"
	"net/http"
)

// Client-visible error codes which are rendered in the "error" field
// of failed responses.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeNotAllowed      = "METHOD_NOT_ALLOWED"
	CodeAlreadyAssigned = "ALREADY_ASSIGNED"
	CodeNoOnlinePartner = "NO_ONLINE_PARTNER"
	CodeConflict        = "CONFLICT"
	CodeLockBusy        = "LOCK_BUSY"
	CodeRateLimited     = "RATE_LIMITED"
	CodeServerError     = "SERVER_ERROR"
	CodeUnavailable     = "UNAVAILABLE"
)

type Error struct {
	Err            error
	HTTPStatusCode int
	Code           string
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d %s] %s", e.HTTPStatusCode, e.Code, e.Err.Error())
}

func BadRequest(err error) *Error {
	return &Error{
		Err: err, HTTPStatusCode: http.StatusBadRequest, Code: CodeBadRequest,
	}
}

func Authentication(err error) *Error {
	return &Error{
		Err: err, HTTPStatusCode: http.StatusUnauthorized, Code: CodeUnauthorized,
	}
}

func Authorization(err error) *Error {
	return &Error{
		Err: err, HTTPStatusCode: http.StatusForbidden, Code: CodeForbidden,
	}
}

func NotFound(err error) *Error {
	return &Error{
		Err: err, HTTPStatusCode: http.StatusNotFound, Code: CodeNotFound,
	}
}

func MethodNotAllowed(err error) *Error {
	return &Error{
		Err:            err,
		HTTPStatusCode: http.StatusMethodNotAllowed,
		Code:           CodeNotAllowed,
	}
}

// Conflict reports a 409 outcome with the given code. The assignment
// operation reports all of its business rejections, including a
// missing booking, as conflicts.
func Conflict(code string, err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusConflict, Code: code}
}

func Locked(err error) *Error {
	return &Error{
		Err: err, HTTPStatusCode: http.StatusLocked, Code: CodeLockBusy,
	}
}

func TooManyRequests(err error) *Error {
	return &Error{
		Err:            err,
		HTTPStatusCode: http.StatusTooManyRequests,
		Code:           CodeRateLimited,
	}
}

// Unavailable reports a 503 outcome, e.g., when the events bus may not
// be subscribed.
func Unavailable(err error) *Error {
	return &Error{
		Err:            err,
		HTTPStatusCode: http.StatusServiceUnavailable,
		Code:           CodeUnavailable,
	}
}
