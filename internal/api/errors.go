package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes mirror the backend's failure taxonomy. Anything the client
// cannot classify is treated as UNAVAILABLE and therefore retryable.
const (
	CodeValidation   = "VALIDATION"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeUnavailable  = "UNAVAILABLE"
)

// Error is a classified backend failure.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a client-side validation error. It is raised before any
// network call and has no retry concept.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
}

func classifyStatus(status int, message string) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Code: CodeUnauthorized, Message: message, Status: status}
	case status == http.StatusNotFound:
		return &Error{Code: CodeNotFound, Message: message, Status: status}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &Error{Code: CodeValidation, Message: message, Status: status}
	default:
		return &Error{Code: CodeUnavailable, Message: message, Status: status}
	}
}

func transport(err error) *Error {
	return &Error{Code: CodeUnavailable, Message: "backend unreachable", Err: err}
}

// IsTransient reports whether the operation may succeed on an explicit
// retry. Transport failures and 5xx responses qualify; context
// cancellation does not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == CodeUnavailable
	}
	return false
}

// IsAuthorization reports a terminal not-permitted or not-found failure for
// the addressed resource.
func IsAuthorization(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == CodeUnauthorized || apiErr.Code == CodeNotFound
	}
	return false
}

// IsValidation reports a rejected-input failure.
func IsValidation(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == CodeValidation
	}
	return false
}
