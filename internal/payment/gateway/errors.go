package gateway

import (
	"errors"
	"fmt"
)

// Category classifies gateway failures so callers can decide whether a retry
// makes sense without parsing messages.
type Category string

const (
	ErrorTimeout     Category = "timeout"
	ErrorOutage      Category = "outage"
	ErrorCircuitOpen Category = "circuit_open"
	ErrorAuth        Category = "authentication"
	ErrorRejected    Category = "rejected"
	ErrorNotFound    Category = "not_found"
	ErrorBadData     Category = "bad_data"
)

// Error is returned by every Client method.
type Error struct {
	Category   Category
	Op         string
	StatusCode int
	// Code and Description come from the gateway's error body when present.
	Code        string
	Description string
	Underlying  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("razorpay %s [%s]", e.Op, e.Category)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Retryable is true for transient failures.
func (e *Error) Retryable() bool {
	switch e.Category {
	case ErrorTimeout, ErrorOutage, ErrorCircuitOpen:
		return true
	}
	return false
}

// countsAsFailure reports whether the error says something about gateway
// health. Rejections of a bad request do not.
func (e *Error) countsAsFailure() bool {
	return e.Retryable() && e.Category != ErrorCircuitOpen
}

// IsCategory reports whether err is a gateway error of category c.
func IsCategory(err error, c Category) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Category == c
}
