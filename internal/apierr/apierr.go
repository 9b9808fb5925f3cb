// Package apierr maps failures to the JSON error envelope
// {"success": false, "message": ..., "error": ...}.
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeValidation       = "VALIDATION_ERROR"
	CodeServer           = "SERVER_ERROR"
	CodeDatabase         = "DATABASE_ERROR"
	CodeGenerationFailed = "STORY_GENERATION_FAILED"
	CodeSafetyFailed     = "SAFETY_VALIDATION_FAILED"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Newf builds an Error whose message is the formatted text.
func Newf(status int, code, format string, args ...any) *Error {
	return New(status, code, fmt.Errorf(format, args...))
}

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Respond writes err as the error envelope and aborts the chain. Errors that
// are not *Error become a 500 without leaking their text.
func Respond(c *gin.Context, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
			Message: "Internal server error",
			Error:   CodeServer,
		})
		return
	}

	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := ae.Code
	if code == "" {
		code = codeFor(status)
	}
	c.AbortWithStatusJSON(status, Envelope{Message: ae.Error(), Error: code})
}

func codeFor(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return CodeValidation
	default:
		return CodeServer
	}
}

func Unauthorized(msg string) *Error { return New(http.StatusUnauthorized, CodeUnauthorized, errors.New(msg)) }
func Forbidden(msg string) *Error    { return New(http.StatusForbidden, CodeForbidden, errors.New(msg)) }
func NotFound(msg string) *Error     { return New(http.StatusNotFound, CodeNotFound, errors.New(msg)) }
func Conflict(msg string) *Error     { return New(http.StatusConflict, CodeConflict, errors.New(msg)) }
func Validation(msg string) *Error   { return New(http.StatusUnprocessableEntity, CodeValidation, errors.New(msg)) }
func BadRequest(msg string) *Error   { return New(http.StatusBadRequest, CodeValidation, errors.New(msg)) }

// Database hides the driver error behind a fixed message.
func Database(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeDatabase, Err: &hidden{msg: "Database error", cause: err}}
}

type hidden struct {
	msg   string
	cause error
}

func (h *hidden) Error() string { return h.msg }
func (h *hidden) Unwrap() error { return h.cause }
