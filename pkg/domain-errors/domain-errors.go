// Package domainerrors carries transport-neutral failure codes from stores
// and services up to the HTTP layer, which maps each code exactly once.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code names what went wrong in business terms, not HTTP terms.
type Code string

const (
	CodeNotFound   Code = "not_found"
	CodeBadRequest Code = "bad_request"
	CodeValidation Code = "validation_failed"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal_error"

	// CodeInvalidSignature marks a payment callback or webhook whose HMAC
	// did not match the shared secret.
	CodeInvalidSignature Code = "invalid_signature"
	// CodeGateway marks a payment gateway failure or timeout. The caller may
	// retry the same request.
	CodeGateway Code = "gateway_error"
)

// Error is a failure with a stable code and a client-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches msg to err. A code already present in the chain wins over
// code, so a not_found from a store survives an internal wrap in a service.
func Wrap(err error, code Code, msg string) error {
	if existing := CodeOf(err); existing != "" && existing != CodeInternal {
		code = existing
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost domain code in err's chain, CodeInternal for
// errors without one, and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsRetryable reports whether repeating the same request can succeed. Only
// gateway failures qualify.
func IsRetryable(err error) bool {
	return HasCode(err, CodeGateway)
}
