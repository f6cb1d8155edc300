// Package apperr carries the agent's error taxonomy. Handlers map a Kind
// to an HTTP status at the boundary; everything below the handlers returns
// plain errors wrapped around one of these.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindNotFound           Kind = "NOT_FOUND"
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindRenderFailed       Kind = "RENDER_FAILED"
	KindInternal           Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func PreconditionFailed(code, message string) *Error {
	return &Error{Kind: KindPreconditionFailed, Code: code, Message: message}
}

func RenderFailed(message string, err error) *Error {
	return &Error{Kind: KindRenderFailed, Code: "RENDER_FAILED", Message: message, Err: err}
}

// As extracts an *Error from an error chain, or wraps it as internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: err.Error(), Err: err}
}
