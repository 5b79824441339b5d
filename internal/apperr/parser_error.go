package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Type markers reported by the body parser.
const (
	TypeParseFailed         = "entity.parse.failed"
	TypeTooLarge            = "entity.too.large"
	TypeRequestAborted      = "request.aborted"
	TypeEncodingUnsupported = "encoding.unsupported"
)

// parserTypes maps every known marker to the description sent to clients.
var parserTypes = map[string]string{
	TypeParseFailed:         "Malformed JSON in request body!",
	TypeTooLarge:            "Request body is too large!",
	TypeRequestAborted:      "Request body could not be read!",
	TypeEncodingUnsupported: "Unsupported request body encoding!",
}

// parseFailedMessage describes parser errors with an unknown marker or one
// that must not be shown to clients.
const parseFailedMessage = "Failed to parse request body!"

// maxParserBody caps how much of the offending payload is retained.
const maxParserBody = 512

// ParserError describes a request body that could not be decoded.
type ParserError struct {
	// Expose reports whether Description is safe to show to clients.
	Expose     bool
	StatusCode int
	Status     int
	// Body is the raw payload that failed to parse, truncated.
	Body string
	// Type is one of the Type* markers.
	Type string

	Err error
}

// NewParserError classifies a body decoding failure. body is the payload that
// was read, if any.
func NewParserError(err error, body []byte) *ParserError {
	status, typ, _ := decodeFailure(err)
	return &ParserError{
		Expose:     true,
		StatusCode: status,
		Status:     status,
		Body:       truncate(string(body), maxParserBody),
		Type:       typ,
		Err:        err,
	}
}

func (e *ParserError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return e.Type
	}
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

func (e *ParserError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Description is the client-facing explanation derived from Type.
func (e *ParserError) Description() string {
	if e == nil {
		return UnknownMessage
	}
	if d, ok := parserTypes[e.Type]; ok {
		return d
	}
	return parseFailedMessage
}

// wellFormed reports whether e has the full parser-error shape: a known type
// marker and a client-error status mirrored in both status fields.
func (e *ParserError) wellFormed() bool {
	if e == nil {
		return false
	}
	if _, ok := parserTypes[e.Type]; !ok {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.Status == e.StatusCode
}

// decodeFailure maps a body decoding error to its status and marker. ok is
// false when err is not a recognizable decoding failure; the read is then
// reported as aborted.
func decodeFailure(err error) (status int, typ string, ok bool) {
	var (
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		maxByteErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxByteErr):
		return http.StatusRequestEntityTooLarge, TypeTooLarge, true
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return http.StatusBadRequest, TypeParseFailed, true
	}
	return http.StatusBadRequest, TypeRequestAborted, false
}

// asParserError extracts a parser failure from err. Bare decoding errors that
// bypassed NewParserError, such as the io.EOF Gin's BindJSON returns for an
// empty body, are lifted into a ParserError.
func asParserError(err error) (*ParserError, bool) {
	var pe *ParserError
	if errors.As(err, &pe) {
		return pe, pe.wellFormed()
	}
	if _, _, ok := decodeFailure(err); ok {
		return NewParserError(err, nil), true
	}
	return nil, false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
