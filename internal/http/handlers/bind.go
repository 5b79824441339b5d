package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-api-scaffold/internal/apperr"
)

// BindJSON decodes the request body into dst and validates it with Gin's
// validator (binding:"..." tags).
//
// An empty body decodes as {}. Read and decode failures come back as
// *apperr.ParserError; failed validation comes back as
// validator.ValidationErrors, or as a binding.SliceValidationError indexed by
// element position when dst is a slice. Any of them can be handed straight
// to Fail:
//
//	var in signupRequest
//	if err := handlers.BindJSON(c, &in); err != nil {
//		handlers.Fail(c, err)
//		return
//	}
func BindJSON(c *gin.Context, dst any) error {
	var body []byte
	if c.Request.Body != nil {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return apperr.NewParserError(err, raw)
		}
		body = raw
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if binding.EnableDecoderUseNumber {
		dec.UseNumber()
	}
	if binding.EnableDecoderDisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return apperr.NewParserError(err, body)
	}

	if binding.Validator == nil {
		return nil
	}
	return validate(reflect.ValueOf(dst))
}

// validate runs Gin's validator over v. Unlike ValidateStruct, slices keep
// one entry per element (nil when it passed) so issue paths carry the
// element's real index.
func validate(v reflect.Value) error {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return binding.Validator.ValidateStruct(v.Interface())
	case reflect.Slice, reflect.Array:
		errs := make(binding.SliceValidationError, v.Len())
		failed := false
		for i := range errs {
			if errs[i] = validate(v.Index(i)); errs[i] != nil {
				failed = true
			}
		}
		if !failed {
			return nil
		}
		return errs
	}
	return nil
}

var (
	validatorOnce sync.Once
	validatorErr  error
)

// ConfigureValidator prepares Gin's validator for client-facing issues:
// JSON field names ("first_name" rather than "FirstName") and English
// messages. Call it at startup; later calls return the first result.
func ConfigureValidator() error {
	validatorOnce.Do(func() {
		if binding.Validator == nil {
			return
		}
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		validatorErr = apperr.RegisterTranslations(v)
	})
	return validatorErr
}

// jsonFieldName returns the json tag name; "-" hides the field and an absent
// tag keeps the Go name.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Cookie returns the named request cookie. A missing or empty cookie
// reports false.
func Cookie(c *gin.Context, name string) (string, bool) {
	v, err := c.Cookie(name)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}
