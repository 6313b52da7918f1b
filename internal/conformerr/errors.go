// Package conformerr provides standardized, classifiable errors for the
// conformance engine, mirroring the §7 error taxonomy: catalog load,
// synthesis, transport, state-source, property, and cancellation failures.
package conformerr

import (
	"errors"
	"fmt"
)

// Code classifies an error by the component that raised it.
type Code string

const (
	// CodeCatalogLoad marks an OpenAPI document that could not be read,
	// parsed, or turned into a non-empty catalog.
	CodeCatalogLoad Code = "CATALOG_LOAD"
	// CodeSynthesis marks a request the synthesizer could not produce.
	CodeSynthesis Code = "SYNTHESIS"
	// CodeTransport marks a failed attempt to reach the service under test.
	CodeTransport Code = "TRANSPORT"
	// CodeStateSource marks a per-kind sampling failure against a StateSource.
	CodeStateSource Code = "STATE_SOURCE"
	// CodeProperty marks an unexpected error raised from inside a property check.
	CodeProperty Code = "PROPERTY"
	// CodeCancelled marks work abandoned because its context was cancelled.
	CodeCancelled Code = "CANCELLED"
)

// ConformanceError wraps a cause with the component and code that produced it,
// so callers can branch on Code() instead of matching error strings.
type ConformanceError struct {
	code      Code
	component string
	message   string
	cause     error
}

// New builds a ConformanceError with no wrapped cause.
func New(code Code, component, message string) *ConformanceError {
	return &ConformanceError{code: code, component: component, message: message}
}

// Wrap builds a ConformanceError around an existing error.
func Wrap(code Code, component, message string, cause error) *ConformanceError {
	return &ConformanceError{code: code, component: component, message: message, cause: cause}
}

func (e *ConformanceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.code, e.component, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.code, e.component, e.message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *ConformanceError) Unwrap() error { return e.cause }

// Code returns the error's classification.
func (e *ConformanceError) Code() Code { return e.code }

// Component returns the name of the component that raised the error.
func (e *ConformanceError) Component() string { return e.component }

// CodeOf extracts the Code from err, walking the wrap chain; the zero Code
// is returned if err (or none of its wrapped causes) is a *ConformanceError.
func CodeOf(err error) Code {
	var ce *ConformanceError
	if errors.As(err, &ce) {
		return ce.code
	}
	return ""
}

// IsCancelled reports whether err represents cancelled work (§7).
func IsCancelled(err error) bool {
	return CodeOf(err) == CodeCancelled || errors.Is(err, ErrCancelled)
}

// ErrCancelled is the sentinel cause used when a context is cancelled mid-operation.
var ErrCancelled = errors.New("conformist: operation cancelled")

// CatalogLoad wraps a document-level catalog load failure; per-operation
// conversion failures are only logged and skipped, not wrapped.
func CatalogLoad(component, message string, cause error) *ConformanceError {
	return Wrap(CodeCatalogLoad, component, message, cause)
}

// Synthesis wraps a failure to synthesize a request for an endpoint.
func Synthesis(component, message string, cause error) *ConformanceError {
	return Wrap(CodeSynthesis, component, message, cause)
}

// Transport wraps a failure to send a request to the service under test.
func Transport(component, message string, cause error) *ConformanceError {
	return Wrap(CodeTransport, component, message, cause)
}

// StateSource wraps a per-kind sampling failure.
func StateSource(component, message string, cause error) *ConformanceError {
	return Wrap(CodeStateSource, component, message, cause)
}

// Property wraps an unexpected error raised inside a property's Check.
func Property(component, message string, cause error) *ConformanceError {
	return Wrap(CodeProperty, component, message, cause)
}

// Cancelled builds the uniform "cancelled" error used across the engine (§7).
func Cancelled(component string) *ConformanceError {
	return Wrap(CodeCancelled, component, "cancelled", ErrCancelled)
}
