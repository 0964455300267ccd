// Package envelope builds the standard JSON response wrapper returned by
// every API route and maps error codes to HTTP status codes.
package envelope

import (
	"net/http"
	"time"
)

// Code is a semantic error code carried in failure envelopes
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[Code]int{
	CodeValidation:         http.StatusBadRequest,
	CodeBadRequest:         http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeInternal:           http.StatusInternalServerError,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
}

// Codes returns every defined error code
func Codes() []Code {
	return []Code{
		CodeValidation,
		CodeBadRequest,
		CodeUnauthorized,
		CodeForbidden,
		CodeNotFound,
		CodeConflict,
		CodeRateLimited,
		CodeInternal,
		CodeServiceUnavailable,
	}
}

// Status returns the HTTP status for the code. Unknown codes map to 500.
func (c Code) Status() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is the error object of a failure envelope
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// NewError creates an error with the given code and message
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Envelope is the response body of every API route
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Error     *Error `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// now is swapped in tests
var now = time.Now

// Success wraps data in a successful envelope
func Success(data any) Envelope {
	return Envelope{
		Success:   true,
		Data:      data,
		Timestamp: now().UnixMilli(),
	}
}

// Failure builds an error envelope with null data
func Failure(code Code, message string) Envelope {
	return FromError(NewError(code, message))
}

// FromError builds a failure envelope from an existing error object
func FromError(e *Error) Envelope {
	return Envelope{
		Success:   false,
		Data:      nil,
		Error:     e,
		Timestamp: now().UnixMilli(),
	}
}

// StatusCode returns 200 for a nil error, otherwise the status mapped to
// the error's code
func StatusCode(e *Error) int {
	if e == nil {
		return http.StatusOK
	}
	return e.Code.Status()
}

// Status returns the HTTP status for the envelope
func (e Envelope) Status() int {
	return StatusCode(e.Error)
}
