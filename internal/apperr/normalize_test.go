package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
)

type lineItem struct {
	Name string `validate:"required"`
}

type signup struct {
	Email string     `validate:"required,email"`
	Age   int        `validate:"gte=18"`
	Role  string     `validate:"oneof=admin user"`
	Items []lineItem `validate:"dive"`
}

var testValidate = newTestValidator(nil)

// newTestValidator returns a validator with English messages registered and,
// when tagName is set, issues named after it.
func newTestValidator(tagName validator.TagNameFunc) *validator.Validate {
	v := validator.New()
	if tagName != nil {
		v.RegisterTagNameFunc(tagName)
	}
	if err := RegisterTranslations(v); err != nil {
		panic(err)
	}
	return v
}

func validationErr(t *testing.T, v any) error {
	t.Helper()
	err := testValidate.Struct(v)
	if err == nil {
		t.Fatalf("expected validation to fail for %+v", v)
	}
	return err
}

// panickyErr blows up on every method call.
type panickyErr struct{}

func (panickyErr) Error() string { panic("boom") }

func assertWellFormed(t *testing.T, resp ErrorResponse) {
	t.Helper()
	if !ValidStatus(resp.StatusCode) {
		t.Fatalf("invalid status %d", resp.StatusCode)
	}
	if resp.Name == "" {
		t.Fatalf("empty name: %+v", resp)
	}
	if len(resp.ErrorSource) == 0 {
		t.Fatalf("empty errorSource: %+v", resp)
	}
}

func TestNormalize_AnyInputIsWellFormed(t *testing.T) {
	var nilStatus *StatusError
	var nilParser *ParserError

	inputs := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"string", "plain string"},
		{"int", 42},
		{"empty struct", struct{}{}},
		{"map", map[string]any{"message": "looks like an error"}},
		{"typed nil status error", error(nilStatus)},
		{"typed nil parser error", error(nilParser)},
		{"panicking error", panickyErr{}},
		{"malformed parser error", &ParserError{Type: "weird", StatusCode: 0}},
		{"status error with bogus code", New(999, "weird")},
		{"empty validation errors", validator.ValidationErrors{}},
		{"plain error", errors.New("boom")},
	}

	for _, tc := range inputs {
		t.Run(tc.name, func(t *testing.T) {
			assertWellFormed(t, Normalize(tc.raw))
		})
	}
}

func TestNormalize_UnknownFallback(t *testing.T) {
	want := ErrorResponse{
		StatusCode:  http.StatusInternalServerError,
		Name:        "Unknown Error!",
		ErrorSource: []ErrorSource{{Path: "unknown", Message: "An Unknown Error Occurred!"}},
		Kind:        KindUnknown,
	}
	for _, raw := range []any{struct{}{}, nil, "oops", panickyErr{}} {
		if got := Normalize(raw); !reflect.DeepEqual(got, want) {
			t.Fatalf("Normalize(%#v) = %+v; want %+v", raw, got, want)
		}
	}
}

func TestNormalize_Validation_PreservesIssueOrder(t *testing.T) {
	err := validationErr(t, signup{
		Email: "not-an-email",
		Age:   10,
		Role:  "root",
		Items: []lineItem{{Name: "ok"}, {Name: ""}},
	})

	resp := Normalize(err)
	if resp.StatusCode != http.StatusUnprocessableEntity || resp.Name != "Validation Error" || resp.Kind != KindValidation {
		t.Fatalf("unexpected header fields: %+v", resp)
	}

	want := []ErrorSource{
		{Path: "Email", Message: "Email must be a valid email address"},
		{Path: "Age", Message: "Age must be 18 or greater"},
		{Path: "Role", Message: "Role must be one of [admin user]"},
		{Path: "Items.1.Name", Message: "Name is a required field"},
	}
	if !reflect.DeepEqual(resp.ErrorSource, want) {
		t.Fatalf("errorSource = %+v; want %+v", resp.ErrorSource, want)
	}
	if resp.Stack == nil {
		t.Fatalf("validation errors are error values; expected a stack")
	}
}

func TestNormalize_Validation_WrappedStillWins(t *testing.T) {
	wrapped := fmt.Errorf("bind: %w", validationErr(t, signup{Age: 30, Role: "admin"}))
	resp := Normalize(wrapped)
	if resp.Kind != KindValidation || len(resp.ErrorSource) != 1 || resp.ErrorSource[0].Message != "Email is a required field" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNormalize_StatusError(t *testing.T) {
	e := New(http.StatusNotFound, "Not Found")
	resp := Normalize(e)

	if resp.StatusCode != http.StatusNotFound || resp.Kind != KindStatus {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Name != DefaultStatusName {
		t.Fatalf("name = %q; want %q", resp.Name, DefaultStatusName)
	}
	if len(resp.ErrorSource) != 1 || resp.ErrorSource[0] != (ErrorSource{Path: "unknown", Message: "Not Found"}) {
		t.Fatalf("errorSource = %+v", resp.ErrorSource)
	}
	if resp.Stack == nil || !strings.HasPrefix(*resp.Stack, "Not Found\n") || !strings.Contains(*resp.Stack, "apperr") {
		t.Fatalf("expected captured stack, got %v", resp.Stack)
	}
}

func TestNormalize_StatusError_OptionsAndWrapping(t *testing.T) {
	e := New(http.StatusForbidden, "nope", WithName("Forbidden Error"), WithPath("/api/users"))
	resp := Normalize(fmt.Errorf("handler: %w", e))

	if resp.StatusCode != http.StatusForbidden || resp.Name != "Forbidden Error" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ErrorSource[0] != (ErrorSource{Path: "/api/users", Message: "nope"}) {
		t.Fatalf("errorSource = %+v", resp.ErrorSource)
	}
}

func TestNormalize_StatusError_InvalidCodeFallsBackTo500(t *testing.T) {
	for _, code := range []int{0, 200, 302, 999, -1} {
		if got := Normalize(New(code, "x")).StatusCode; got != http.StatusInternalServerError {
			t.Fatalf("code %d normalized to %d; want 500", code, got)
		}
	}
}

func TestNormalize_ParserError(t *testing.T) {
	pe := &ParserError{
		Expose:     true,
		StatusCode: http.StatusBadRequest,
		Status:     http.StatusBadRequest,
		Body:       `{"a":`,
		Type:       TypeParseFailed,
	}
	resp := Normalize(pe)
	if resp.StatusCode != http.StatusBadRequest || resp.Name != "Parser Error" || resp.Kind != KindParser {
		t.Fatalf("unexpected response: %+v", resp)
	}
	want := []ErrorSource{{Path: "unknown", Message: "Malformed JSON in request body!"}}
	if !reflect.DeepEqual(resp.ErrorSource, want) {
		t.Fatalf("errorSource = %+v; want %+v", resp.ErrorSource, want)
	}
}

func TestNormalize_BareJSONSyntaxErrorIsParserError(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte(`{"a":`), &v)
	if err == nil {
		t.Fatal("expected decode error")
	}
	var syn *json.SyntaxError
	if !errors.As(err, &syn) {
		t.Skipf("decoder returned %T, not a syntax error", err)
	}
	resp := Normalize(err)
	if resp.Kind != KindParser || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNormalize_MaxBytesIsPayloadTooLarge(t *testing.T) {
	resp := Normalize(&http.MaxBytesError{Limit: 10})
	if resp.Kind != KindParser || resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ErrorSource[0].Message != "Request body is too large!" {
		t.Fatalf("message = %q", resp.ErrorSource[0].Message)
	}
}

func TestNormalize_TruncatedOrEmptyBodyIsParserError(t *testing.T) {
	for _, err := range []error{
		io.ErrUnexpectedEOF,
		io.EOF,
		fmt.Errorf("decode: %w", io.EOF),
	} {
		resp := Normalize(err)
		if resp.Kind != KindParser || resp.StatusCode != http.StatusBadRequest || resp.Name != ParserName {
			t.Fatalf("Normalize(%v) = %+v", err, resp)
		}
		if resp.ErrorSource[0].Message != "Malformed JSON in request body!" {
			t.Fatalf("message = %q", resp.ErrorSource[0].Message)
		}
	}
}

func TestNormalize_ParserError_HiddenDescription(t *testing.T) {
	pe := &ParserError{
		StatusCode: http.StatusRequestEntityTooLarge,
		Status:     http.StatusRequestEntityTooLarge,
		Type:       TypeTooLarge,
	}
	resp := Normalize(pe)
	if resp.Kind != KindParser || resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got := resp.ErrorSource[0].Message; got != "Failed to parse request body!" {
		t.Fatalf("message = %q; want the generic parser message", got)
	}

	pe.Expose = true
	if got := Normalize(pe).ErrorSource[0].Message; got != "Request body is too large!" {
		t.Fatalf("exposed message = %q", got)
	}
}

func TestNormalize_GenericError(t *testing.T) {
	resp := Normalize(errors.New("boom"))
	want := []ErrorSource{{Path: "unknown", Message: "boom"}}
	if resp.StatusCode != http.StatusInternalServerError || resp.Name != "Error" || resp.Kind != KindGeneric {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !reflect.DeepEqual(resp.ErrorSource, want) {
		t.Fatalf("errorSource = %+v; want %+v", resp.ErrorSource, want)
	}
	if resp.Stack == nil || *resp.Stack != "boom" {
		t.Fatalf("stack = %v; want message only", resp.Stack)
	}
}

func TestNormalize_GenericError_PkgErrorsStack(t *testing.T) {
	resp := Normalize(pkgerrors.New("kaput"))
	if resp.Kind != KindGeneric || resp.Stack == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(*resp.Stack, "kaput\n") || !strings.Contains(*resp.Stack, "TestNormalize_GenericError_PkgErrorsStack") {
		t.Fatalf("stack missing frames: %q", *resp.Stack)
	}
}

func TestNormalize_GenericError_EmptyMessage(t *testing.T) {
	resp := Normalize(errors.New(""))
	if resp.ErrorSource[0].Message != UnknownMessage {
		t.Fatalf("message = %q; want fallback", resp.ErrorSource[0].Message)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []any{
		New(http.StatusConflict, "dup"),
		errors.New("boom"),
		validationErr(t, signup{Age: 1, Role: "x"}),
		&http.MaxBytesError{Limit: 1},
		struct{}{},
	}
	for _, raw := range inputs {
		a, b := Normalize(raw), Normalize(raw)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("Normalize not idempotent for %T:\n%+v\n%+v", raw, a, b)
		}
	}
}

func TestErrorResponse_JSONShape(t *testing.T) {
	resp := Normalize(struct{}{})
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"statusCode":500,"name":"Unknown Error!","errorSource":[{"path":"unknown","message":"An Unknown Error Occurred!"}]}`
	if string(b) != want {
		t.Fatalf("json = %s; want %s", b, want)
	}

	withStack := Normalize(errors.New("boom"))
	b, _ = json.Marshal(withStack)
	if !strings.Contains(string(b), `"stack":"boom"`) {
		t.Fatalf("expected stack in json: %s", b)
	}
	b, _ = json.Marshal(withStack.WithoutStack())
	if strings.Contains(string(b), `"stack"`) {
		t.Fatalf("stack should be omitted: %s", b)
	}
}
