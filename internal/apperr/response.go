// Package apperr turns any failure raised while serving a request into one
// structured, client-safe response.
//
// Upstream code fails in many shapes: validation errors from Gin binding,
// body-parser errors, explicit StatusError values, plain Go errors, or
// arbitrary values handed to panic. Normalize collapses all of them into an
// ErrorResponse with a stable status code, a short name, a non-empty list of
// field-level sources and an optional stack trace.
//
// Example response:
//
//	HTTP/1.1 422 Unprocessable Entity
//	{
//	  "statusCode": 422,
//	  "name": "Validation Error",
//	  "errorSource": [
//	    { "path": "email", "message": "Email must be a valid email address" }
//	  ]
//	}
package apperr

import "net/http"

// Fallback values used whenever no field-level detail exists.
const (
	UnknownPath    = "unknown"
	UnknownName    = "Unknown Error!"
	UnknownMessage = "An Unknown Error Occurred!"
)

// ErrorSource is one field-level complaint.
type ErrorSource struct {
	// Path locates the offending field, e.g. "items.0.name", or "unknown".
	Path string `json:"path" example:"email"`
	// Message is safe to show to users.
	Message string `json:"message" example:"Email is a required field"`
}

// ErrorResponse is the terminal shape of every failed request.
//
// StatusCode is always a member of the status taxonomy (see ValidStatus) and
// ErrorSource always holds at least one entry. Stack is nil when the failure
// did not originate from an error value.
type ErrorResponse struct {
	StatusCode  int           `json:"statusCode" example:"404"`
	Name        string        `json:"name" example:"Not Found Error"`
	ErrorSource []ErrorSource `json:"errorSource"`
	Stack       *string       `json:"stack,omitempty"`

	// Kind is the classification that produced this response.
	Kind Kind `json:"-"`
}

// Message returns the first source message, which is the most useful single
// line for logs.
func (r ErrorResponse) Message() string {
	if len(r.ErrorSource) == 0 {
		return UnknownMessage
	}
	return r.ErrorSource[0].Message
}

// WithoutStack returns a copy of r with the stack removed. The transport uses
// it to keep debug traces out of production responses.
func (r ErrorResponse) WithoutStack() ErrorResponse {
	r.Stack = nil
	return r
}

// ValidStatus reports whether code is an error status the pipeline may emit:
// a 4xx or 5xx code known to net/http.
func ValidStatus(code int) bool {
	return code >= 400 && code <= 599 && http.StatusText(code) != ""
}

// unknownResponse is the fallback for values no extractor recognizes.
func unknownResponse() ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusInternalServerError,
		Name:        UnknownName,
		ErrorSource: []ErrorSource{{Path: UnknownPath, Message: UnknownMessage}},
		Kind:        KindUnknown,
	}
}
