// Package llm runs the language model behind a bounded worker pool and turns
// every way a call can go wrong into one of three error kinds.
package llm

import (
	"context"
	"fmt"

	errx "github.com/quantumgateway/hotelchat/internal/core/error"
)

// TimeoutFallback is shown to the user when the model does not answer in time.
const TimeoutFallback = "Nuestro asistente está tardando más de lo normal. Mientras tanto, puedes revisar el menú superior " +
	"de la página o escribir a recepción con el botón de WhatsApp de la sección Contacto."

// Invoker sends a prompt to a model and returns its raw text.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Error is a failed invocation. Kind is one of errx.ErrModelExecution,
// errx.ErrModelTimeout or errx.ErrModelUnavailable.
type Error struct {
	Kind     error
	Fallback string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func executionError(err error) *Error {
	return &Error{Kind: errx.ErrModelExecution, Err: err}
}

func timeoutError(err error) *Error {
	return &Error{Kind: errx.ErrModelTimeout, Fallback: TimeoutFallback, Err: err}
}

func unavailableError(err error) *Error {
	return &Error{Kind: errx.ErrModelUnavailable, Err: err}
}
