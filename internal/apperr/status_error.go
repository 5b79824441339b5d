package apperr

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// DefaultStatusName labels StatusError values constructed without WithName.
const DefaultStatusName = "Operational Error"

// StatusError is an error raised deliberately by upstream code, carrying the
// HTTP status the client should receive.
//
// A StatusError is built once at the point the failure is detected and is
// never mutated afterwards. The call stack is captured at construction.
type StatusError struct {
	// Name labels the error category, e.g. "Not Found Error".
	Name string
	// Message is the human-readable description sent to the client.
	Message string
	// StatusCode is the HTTP status to respond with. Keeping it plausible is
	// the caller's job; Normalize degrades invalid codes to 500.
	StatusCode int
	// Path optionally names the offending field or resource.
	Path string

	stack pkgerrors.StackTrace
}

// Option customizes a StatusError at construction.
type Option func(*StatusError)

// WithName overrides the default "Operational Error" label.
func WithName(name string) Option {
	return func(e *StatusError) {
		if name != "" {
			e.Name = name
		}
	}
}

// WithPath sets the source path reported for the error.
func WithPath(path string) Option {
	return func(e *StatusError) {
		if path != "" {
			e.Path = path
		}
	}
}

// New constructs a StatusError. Construction never fails.
//
//	return apperr.New(http.StatusNotFound, "order not found", apperr.WithName("Not Found Error"))
func New(statusCode int, message string, opts ...Option) *StatusError {
	return newStatusError(statusCode, message, opts)
}

// Newf is New with a formatted message. Options are applied with With:
//
//	return apperr.Newf(http.StatusNotFound, "order %d not found", id).With(apperr.WithPath("id"))
func Newf(statusCode int, format string, args ...any) *StatusError {
	return newStatusError(statusCode, fmt.Sprintf(format, args...), nil)
}

// newStatusError must be called directly by the exported constructors so the
// captured stack starts at their caller.
func newStatusError(statusCode int, message string, opts []Option) *StatusError {
	e := &StatusError{
		Name:       DefaultStatusName,
		Message:    message,
		StatusCode: statusCode,
		Path:       UnknownPath,
		stack:      callers(2),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// With returns a copy of e with opts applied. e itself is left unchanged and
// the copy keeps its construction stack.
func (e *StatusError) With(opts ...Option) *StatusError {
	if e == nil {
		return nil
	}
	cp := *e
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// StackTrace exposes the construction stack in github.com/pkg/errors form.
func (e *StatusError) StackTrace() pkgerrors.StackTrace {
	if e == nil {
		return nil
	}
	return e.stack
}
