package apperr

import (
	"errors"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Kind is the closed set of failure categories Normalize recognizes.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindParser
	KindStatus
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindParser:
		return "parser"
	case KindStatus:
		return "status"
	case KindGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Classify reports which kind raw belongs to. Checks run in priority order
// and the first match wins:
//
//  1. validator.ValidationErrors with at least one issue, or a Gin
//     binding.SliceValidationError whose elements are all validation errors
//  2. a well-formed ParserError, or a bare JSON/body-size decoding error
//  3. a non-nil *StatusError
//  4. any other non-nil error
//  5. everything else (nil, strings, numbers, maps, structs)
//
// Classify only inspects raw; it never mutates or retains it. A typed nil
// error, or one whose methods panic, classifies as KindUnknown.
func Classify(raw any) (kind Kind) {
	defer func() {
		if recover() != nil {
			kind = KindUnknown
		}
	}()

	err, ok := raw.(error)
	if !ok || isNil(err) {
		return KindUnknown
	}
	if _, ok := asValidationErrors(err); ok {
		return KindValidation
	}
	if _, ok := asParserError(err); ok {
		return KindParser
	}
	if _, ok := asStatusError(err); ok {
		return KindStatus
	}
	return KindGeneric
}

// fieldIssue is one failed check. prefix holds the element index when the
// request body was a JSON array, e.g. "0" or "2.1" for nested arrays.
type fieldIssue struct {
	prefix string
	fe     validator.FieldError
}

func asValidationErrors(err error) ([]fieldIssue, bool) {
	var sve binding.SliceValidationError
	if errors.As(err, &sve) {
		issues, ok := sliceIssues(sve, "")
		return issues, ok && len(issues) > 0
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return appendIssues(nil, "", ve), true
	}
	return nil, false
}

// sliceIssues flattens per-element validation results, prefixing each issue
// with the element's position. Nil elements passed validation. Any element
// that is not a validation failure disqualifies the whole slice.
func sliceIssues(sve binding.SliceValidationError, prefix string) ([]fieldIssue, bool) {
	var issues []fieldIssue
	for i, el := range sve {
		if isNil(el) {
			continue
		}
		at := strconv.Itoa(i)
		if prefix != "" {
			at = prefix + "." + at
		}

		var (
			nested binding.SliceValidationError
			ve     validator.ValidationErrors
		)
		switch {
		case errors.As(el, &nested):
			sub, ok := sliceIssues(nested, at)
			if !ok {
				return nil, false
			}
			issues = append(issues, sub...)
		case errors.As(el, &ve):
			issues = appendIssues(issues, at, ve)
		default:
			return nil, false
		}
	}
	return issues, true
}

func appendIssues(dst []fieldIssue, prefix string, ve validator.ValidationErrors) []fieldIssue {
	for _, fe := range ve {
		dst = append(dst, fieldIssue{prefix: prefix, fe: fe})
	}
	return dst
}

func asStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) && se != nil {
		return se, true
	}
	return nil, false
}

// isNil catches both a nil interface and a typed nil pointer stored in one.
func isNil(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
