package apperr

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Names reported by the fixed-label extractors.
const (
	ValidationName = "Validation Error"
	ParserName     = "Parser Error"
	GenericName    = "Error"
)

// Each extractor maps one kind's native payload onto the response triple.
// The stack is computed once by Normalize and passed through unchanged.

func fromValidation(issues []fieldIssue, stack *string) ErrorResponse {
	sources := make([]ErrorSource, 0, len(issues))
	for _, is := range issues {
		path, msg := "", UnknownMessage
		if is.fe != nil {
			path, msg = fieldPath(is.fe), issueMessage(is.fe)
		}
		sources = append(sources, ErrorSource{
			Path:    joinPath(is.prefix, path),
			Message: msg,
		})
	}
	return ErrorResponse{
		StatusCode:  http.StatusUnprocessableEntity,
		Name:        ValidationName,
		ErrorSource: sources,
		Stack:       stack,
		Kind:        KindValidation,
	}
}

// fromParser reports the marker's description only when the error allows it.
func fromParser(pe *ParserError, stack *string) ErrorResponse {
	status := pe.StatusCode
	if !ValidStatus(status) {
		status = http.StatusBadRequest
	}
	msg := parseFailedMessage
	if pe.Expose {
		msg = pe.Description()
	}
	return ErrorResponse{
		StatusCode:  status,
		Name:        ParserName,
		ErrorSource: []ErrorSource{{Path: UnknownPath, Message: msg}},
		Stack:       stack,
		Kind:        KindParser,
	}
}

func fromStatus(se *StatusError, stack *string) ErrorResponse {
	status := se.StatusCode
	if !ValidStatus(status) {
		status = http.StatusInternalServerError
	}
	return ErrorResponse{
		StatusCode:  status,
		Name:        orDefault(se.Name, DefaultStatusName),
		ErrorSource: []ErrorSource{{Path: orDefault(se.Path, UnknownPath), Message: orDefault(se.Message, UnknownMessage)}},
		Stack:       stack,
		Kind:        KindStatus,
	}
}

func fromGeneric(err error, stack *string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusInternalServerError,
		Name:        GenericName,
		ErrorSource: []ErrorSource{{Path: UnknownPath, Message: orDefault(err.Error(), UnknownMessage)}},
		Stack:       stack,
		Kind:        KindGeneric,
	}
}

// fieldPath joins the issue's namespace without the root struct name, using
// dots for slice and map indices: "Order.Items[0].Name" -> "Items.0.Name".
// It is empty when the issue names no field.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	} else {
		ns = fe.Field()
	}
	return strings.Trim(pathReplacer.Replace(ns), ".")
}

var pathReplacer = strings.NewReplacer("[", ".", "]", "")

// joinPath puts an array element prefix in front of a field path.
func joinPath(prefix, path string) string {
	switch {
	case prefix != "" && path != "":
		return prefix + "." + path
	case prefix != "":
		return prefix
	case path != "":
		return path
	}
	return UnknownPath
}

// issueMessage renders the English translation of the failed tag with the
// field shown as a display name ("first_name is ..." -> "First name is ...").
func issueMessage(fe validator.FieldError) string {
	field := fe.Field()
	msg, ok := translate(fe)
	if !ok {
		if p := fe.Param(); p != "" {
			return fmt.Sprintf("%s failed the '%s=%s' validation", displayName(field), fe.Tag(), p)
		}
		return fmt.Sprintf("%s failed the '%s' validation", displayName(field), fe.Tag())
	}
	if field != "" && strings.HasPrefix(msg, field) {
		msg = displayName(field) + msg[len(field):]
	}
	return msg
}

// displayName turns a field name such as "first_name" into "First name".
func displayName(field string) string {
	field = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(field))
	if field == "" {
		return "Value"
	}
	first, rest := field, ""
	if i := strings.IndexByte(field, ' '); i > 0 {
		first, rest = field[:i], field[i:]
	}
	// cases.Caser is stateful; build one per call.
	return cases.Title(language.English, cases.NoLower).String(first) + rest
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
