// Package function - The classify-and-enrich invocation handler.
package function

import (
	"github.com/pkg/errors"
)

// Kind classifies a failed invocation.
type Kind string

const (
	// KindConfiguration is a missing environment value or model source.
	KindConfiguration Kind = "configuration"
	// KindInput is a malformed request.
	KindInput Kind = "input"
	// KindRuntime is a download, decode, model or network failure.
	KindRuntime Kind = "runtime"
)

// Error is a failed invocation. Its message is what the caller sees.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindConfiguration {
		return "Configuration error: " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Cause returns the underlying error for errors.Cause.
func (e *Error) Cause() error { return e.Err }

func configurationError(err error) *Error { return &Error{Kind: KindConfiguration, Err: err} }

func inputError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInput, Err: errors.Errorf(format, args...)}
}

func runtimeError(err error) *Error { return &Error{Kind: KindRuntime, Err: err} }

// KindOf returns the kind of err, treating unclassified errors as runtime.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRuntime
}
