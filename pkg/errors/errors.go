package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the kind of failure independent of its message
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// Is reports whether target is an AppError carrying the same code, so
// errors.Is(err, errors.ErrKindNotFound) works through wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// StatusCode maps the error kind onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrValidation, ErrBadRequest:
		return http.StatusBadRequest
	case ErrInvalidTransition, ErrIllegalState, ErrAlreadyLinked:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrUnauthorized:
		return http.StatusForbidden
	case ErrRepository:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthenticated
	ErrUnauthorized
	ErrInternal
	ErrValidation
	ErrInvalidTransition
	ErrIllegalState
	ErrAlreadyLinked
	ErrRepository
)

// Sentinels for errors.Is comparisons; only the code is compared.
var (
	ErrKindNotFound          = &AppError{Code: ErrNotFound}
	ErrKindValidation        = &AppError{Code: ErrValidation}
	ErrKindInvalidTransition = &AppError{Code: ErrInvalidTransition}
	ErrKindIllegalState      = &AppError{Code: ErrIllegalState}
	ErrKindAlreadyLinked     = &AppError{Code: ErrAlreadyLinked}
	ErrKindUnauthorized      = &AppError{Code: ErrUnauthorized}
	ErrKindUnauthenticated   = &AppError{Code: ErrUnauthenticated}
	ErrKindRepository        = &AppError{Code: ErrRepository}
)

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Unauthenticated is returned when no valid actor could be established.
func Unauthenticated(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: "unauthenticated",
		Err:     err,
	}
}

// Unauthorized is returned when the authorization engine denies an operation.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

func Validationf(format string, args ...interface{}) *AppError {
	return Validation(fmt.Sprintf(format, args...))
}

func InvalidTransition(from, action string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("cannot %s from state %s", action, from),
	}
}

func IllegalState(message string) *AppError {
	return &AppError{
		Code:    ErrIllegalState,
		Message: message,
	}
}

func AlreadyLinked(message string) *AppError {
	return &AppError{
		Code:    ErrAlreadyLinked,
		Message: message,
	}
}

// Repository wraps a failure of the persistence collaborator.
func Repository(op string, err error) *AppError {
	return &AppError{
		Code:    ErrRepository,
		Message: fmt.Sprintf("repository failure during %s", op),
		Err:     err,
	}
}

// ErrStaleWrite is wrapped in a Repository error when a compare-and-set
// update lost against a concurrent writer.
var ErrStaleWrite = errors.New("stale write")

// Stale reports a lost optimistic-concurrency race on resource.
func Stale(resource string) *AppError {
	return Repository("update "+resource, ErrStaleWrite)
}

// Code extracts the error code of the first AppError in err's chain.
func Code(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return 0, false
}
