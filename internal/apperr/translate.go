package apperr

import (
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Each validator gets its own translator: a ut.Translator rejects a second
// registration of the same message keys.
var (
	transMu     sync.RWMutex
	translators []ut.Translator
)

// RegisterTranslations installs the English issue messages on v so that
// Normalize can render its validation errors. Call it once per validator at
// startup. Issues from validators without translations get a generic
// "<Field> failed the '<tag>' validation" message.
func RegisterTranslations(v *validator.Validate) error {
	eng := en.New()
	trans, _ := ut.New(eng, eng).GetTranslator(eng.Locale())
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return err
	}

	transMu.Lock()
	translators = append(translators, trans)
	transMu.Unlock()
	return nil
}

// translate renders fe with the first registered translator its validator
// knows. FieldError.Translate falls back to Error() when it does not.
func translate(fe validator.FieldError) (string, bool) {
	transMu.RLock()
	defer transMu.RUnlock()

	raw := fe.Error()
	for _, trans := range translators {
		if msg := fe.Translate(trans); msg != raw {
			return msg, true
		}
	}
	return "", false
}
