package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code returned to API clients.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeAccessDenied      Code = "ACCESS_DENIED"
	CodeSlotTaken         Code = "SLOT_TAKEN"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeImmutable         Code = "APPOINTMENT_IMMUTABLE"
	CodePastDate          Code = "PAST_DATE"
	CodeInvalidDate       Code = "INVALID_APPOINTMENT_DATE"
	CodePersistence       Code = "PERSISTENCE_ERROR"
	CodeRateLimited       Code = "RATE_LIMITED"
)

// AppError carries a stable code, the HTTP status it maps to, and a
// human-readable message. The wrapped error is for logs only.
type AppError struct {
	Code    Code   `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on code so callers can compare against sentinel constructors.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

func Validation(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Status: http.StatusBadRequest, Message: message, Err: err}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{Code: CodeNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf("%s not found", resource), Err: err}
}

func AccessDenied(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return &AppError{Code: CodeAccessDenied, Status: http.StatusForbidden, Message: message}
}

func SlotTaken() *AppError {
	return &AppError{Code: CodeSlotTaken, Status: http.StatusBadRequest, Message: "slot is already booked"}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("cannot transition appointment from %s to %s", from, to),
	}
}

func Immutable(status string) *AppError {
	return &AppError{
		Code:    CodeImmutable,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("appointment is %s and can no longer be modified", status),
	}
}

func PastDate() *AppError {
	return &AppError{Code: CodePastDate, Status: http.StatusBadRequest, Message: "requested date is in the past"}
}

func InvalidDate(message string) *AppError {
	if message == "" {
		message = "invalid appointment date"
	}
	return &AppError{Code: CodeInvalidDate, Status: http.StatusBadRequest, Message: message}
}

func Persistence(err error) *AppError {
	return &AppError{Code: CodePersistence, Status: http.StatusInternalServerError, Message: "a storage error occurred, please retry", Err: err}
}

// From extracts an AppError from err, wrapping unknown errors as persistence
// faults so handlers never leak internals.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Persistence(err)
}
