/*
Package errs defines the application error codes shared by the HTTP API and the live socket.

This file defines the CustomError struct, which implements the standard Go error interface
and carries a business code, a user-facing message and an HTTP status code, so every layer
reports failures the same way.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"folio/internal/pkg/logx"
)

// CustomError is the error type every handler-facing failure is converted to.
// Domain packages declare their sentinels with NewError, so the same value can be
// matched with errors.Is and written straight into a response.
type CustomError struct {
	// Code is the application code (see error_codes.go).
	Code int

	// Message is the user-facing text.
	Message string

	// Status is the HTTP status used when the error is written as a response.
	Status int
}

// Error implements the standard Go error interface. It returns a formatted
// string containing the error code, HTTP status and message.
func (e *CustomError) Error() string {
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is reports whether target carries the same code, so errors.Is works against NewError values.
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError constructs a new *CustomError from a registered error code.
// The optional details are printf-style arguments for messages that contain a verb,
// such as the character limit in ErrCommentTooLong. For ErrUnknown the first detail may
// be the underlying error: it is logged and never shown to the client.
// An unregistered code is logged and collapses to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	tmpl, ok := errorMap[code]
	if !ok {
		logx.Error(fmt.Errorf("unregistered error code %d", code), "falling back to ErrUnknown")
		tmpl = errorMap[ErrUnknown]
	}

	out := tmpl
	if out.Status == 0 {
		out.Status = http.StatusOK
	}

	switch {
	case len(details) == 0:
	case out.Code == ErrUnknown:
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "unknown error surfaced to client")
		}
	case strings.Contains(out.Message, "%"):
		out.Message = fmt.Sprintf(out.Message, details...)
	default:
		logx.Warn("error details ignored: message has no format verbs", "code", out.Code)
	}

	return &out
}

// CodeOf returns the application code carried by err, ErrUnknown for foreign errors
// and 0 for nil.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code
	}
	return ErrUnknown
}

// From converts any error to a *CustomError.
// Errors that already carry a code pass through unchanged; anything else is logged
// and reported as ErrUnknown so internal details never reach the client.
func From(err error) *CustomError {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	return NewError(ErrUnknown, err)
}
