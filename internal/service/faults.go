package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/phrazzld/dsh-elg/internal/redact"
)

// ProcessingError reports a fault raised while building or running the
// engine, or while reshaping its output.
type ProcessingError struct {
	// Err is the underlying fault
	Err error
	// Stack is the goroutine stack captured when the fault was a panic
	Stack []byte
}

// Error implements error.
func (e *ProcessingError) Error() string {
	return "annotation failed: " + e.Err.Error()
}

// Unwrap returns the underlying fault.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Summary returns the one-line description reported to clients.
func (e *ProcessingError) Summary() string {
	return Summarize(e.Err)
}

// PanicError carries the value recovered from a panic.
type PanicError struct {
	Value any
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprint(e.Value)
}

// FaultType names the panic value's type, or "panic" for non-error values.
func (e *PanicError) FaultType() string {
	if err, ok := e.Value.(error); ok {
		return typeName(err)
	}
	return "panic"
}

// ContentError is returned when the request content is not a JSON string.
type ContentError struct {
	// Kind is the JSON kind that was received instead, e.g. "number"
	Kind string
}

// Error implements error.
func (e *ContentError) Error() string {
	return "content must be a string, got " + e.Kind
}

// FaultType implements the fault naming used by Summarize.
func (e *ContentError) FaultType() string {
	return "service.ContentError"
}

// Summarize renders err as "<type>: <message>" on a single line with
// credentials redacted. The type comes from a FaultType method anywhere in the
// chain, or else from the innermost wrapped error.
func Summarize(err error) string {
	if err == nil {
		return ""
	}
	return faultType(err) + ": " + oneLine(redact.Error(err))
}

func faultType(err error) string {
	var typed interface{ FaultType() string }
	if errors.As(err, &typed) {
		return typed.FaultType()
	}

	inner := err
	for {
		next := errors.Unwrap(inner)
		if next == nil {
			break
		}
		inner = next
	}
	return typeName(inner)
}

func typeName(err error) string {
	name := strings.TrimPrefix(reflect.TypeOf(err).String(), "*")
	if name == "errors.errorString" {
		return "error"
	}
	return name
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
