package apperr

// Normalize converts any failure value into exactly one ErrorResponse.
//
// raw may be anything a handler records or panics with. Normalize never
// panics: if inspecting a malformed value fails midway, the unknown-error
// fallback is returned instead. The result for a given value is stable across
// calls, including the stack, which is captured when the error was created.
func Normalize(raw any) (resp ErrorResponse) {
	defer func() {
		if recover() != nil {
			resp = unknownResponse()
		}
	}()

	kind := Classify(raw)
	if kind == KindUnknown {
		return unknownResponse()
	}

	err := raw.(error)
	var stack *string
	if s, ok := stackOf(err); ok {
		stack = &s
	}

	switch kind {
	case KindValidation:
		issues, _ := asValidationErrors(err)
		return fromValidation(issues, stack)
	case KindParser:
		pe, _ := asParserError(err)
		return fromParser(pe, stack)
	case KindStatus:
		se, _ := asStatusError(err)
		return fromStatus(se, stack)
	default:
		return fromGeneric(err, stack)
	}
}
