package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "error interno del servidor"
	// EmptyMessageMessage is returned when the chat message is blank.
	EmptyMessageMessage = "el mensaje no puede estar vacío"
	// InvalidRequestMessage is returned when the request body cannot be decoded.
	InvalidRequestMessage = "solicitud inválida"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// Error kinds. Model kinds are recovered inside the pipeline and never reach
// the HTTP layer; they exist so logs and tests can tell failures apart.
var (
	ErrEmptyMessage     = errors.New("empty message")
	ErrModelExecution   = errors.New("model execution error")
	ErrModelTimeout     = errors.New("model timeout")
	ErrModelUnavailable = errors.New("model unavailable")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// EmptyMessage is the client input error for a blank chat message.
func EmptyMessage() *AppError {
	return New(ErrEmptyMessage, http.StatusBadRequest, EmptyMessageMessage)
}

// BadRequest wraps a decoding or validation failure of the request itself.
func BadRequest(err error) *AppError {
	return New(err, http.StatusBadRequest, InvalidRequestMessage)
}

// Internal hides err behind the generic system message.
func Internal(err error) *AppError {
	return New(err, http.StatusInternalServerError, SystemErrorMessage)
}

// Status returns the HTTP status carried by err, or 500 when err is not an
// AppError.
func Status(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show to a client.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}
