package apperr

import (
	"errors"
	"fmt"
	"runtime"

	pkgerrors "github.com/pkg/errors"
)

// maxStackDepth bounds capture on the failure path.
const maxStackDepth = 32

// stackTracer is implemented by StatusError and by every error built with
// github.com/pkg/errors (New, Errorf, Wrap, WithStack).
type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// callers captures the current stack starting skip frames above the function
// that calls it.
func callers(skip int) pkgerrors.StackTrace {
	var pcs [maxStackDepth]uintptr
	// +2 skips runtime.Callers and callers itself.
	n := runtime.Callers(skip+2, pcs[:])
	st := make(pkgerrors.StackTrace, n)
	for i := 0; i < n; i++ {
		st[i] = pkgerrors.Frame(pcs[i])
	}
	return st
}

// stackOf renders the debug stack for raw. Only error values have one: the
// message line, followed by the captured frames when the error carries them.
func stackOf(raw any) (string, bool) {
	err, ok := raw.(error)
	if !ok || err == nil {
		return "", false
	}
	msg := err.Error()
	var st stackTracer
	if errors.As(err, &st) && st != nil {
		if frames := st.StackTrace(); len(frames) > 0 {
			return msg + fmt.Sprintf("%+v", frames), true
		}
	}
	return msg, true
}
