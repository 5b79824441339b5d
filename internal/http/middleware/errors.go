package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"

	"github.com/tbourn/go-api-scaffold/internal/apperr"
	"github.com/tbourn/go-api-scaffold/internal/observability"
)

// ErrorOptions configures the error boundary.
type ErrorOptions struct {
	// ExposeStack keeps the debug stack in responses. Disable in production.
	ExposeStack bool
}

// ErrorBody is the JSON written for every failed request: the normalized
// ErrorResponse plus the correlation ID.
type ErrorBody struct {
	RequestID string `json:"request_id" example:"9b2f7a7e-5c1e-4d8c-9d0b-0b1e2f3a4c5d"`
	apperr.ErrorResponse
}

// ErrorHandler is the catch-all error boundary.
//
// Handlers fail by recording an error on the context (c.Error) and aborting,
// or by panicking. After the chain returns, the last recorded error (or the
// recovered panic value) goes through apperr.Normalize and exactly one JSON
// body is written with the normalized status. A status line the handler
// already committed is kept and the body follows it; nothing is written when
// a body was already sent.
//
// Error panics are wrapped with a stack so the trace points at the panic
// site. http.ErrAbortHandler is re-raised so net/http can drop the
// connection.
func ErrorHandler(opt ErrorOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok {
				if errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				rec = pkgerrors.WithStack(err)
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			respond(c, opt, rec)
		}()

		c.Next()

		if last := c.Errors.Last(); last != nil {
			respond(c, opt, last.Err)
		}
	}
}

// NotFound reports an unmatched route through the error boundary.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperr.New(http.StatusNotFound,
			fmt.Sprintf("Requested end-point “%s” not found!", c.Request.URL.Path),
			apperr.WithName("Not Found Error"),
		))
		c.Abort()
	}
}

// MethodNotAllowed reports a known route hit with the wrong method. It only
// fires when the engine has HandleMethodNotAllowed enabled.
func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperr.New(http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s is not allowed on end-point “%s”!", c.Request.Method, c.Request.URL.Path),
			apperr.WithName("Method Not Allowed Error"),
		))
		c.Abort()
	}
}

func respond(c *gin.Context, opt ErrorOptions, raw any) {
	resp := apperr.Normalize(raw)
	if !opt.ExposeStack {
		resp = resp.WithoutStack()
	}

	// c.AbortWithError and c.BindJSON commit the status line before the
	// boundary runs. The client gets that status, so report it.
	sent := resp.StatusCode
	if c.Writer.Written() {
		sent = c.Writer.Status()
		if apperr.ValidStatus(sent) {
			resp.StatusCode = sent
		}
	}

	lg := LoggerFrom(c)
	ev := lg.Warn()
	if resp.StatusCode >= http.StatusInternalServerError {
		ev = lg.Error()
		if resp.Stack != nil {
			ev = ev.Str("stack", *resp.Stack)
		}
	}
	ev.Str("kind", resp.Kind.String()).
		Str("name", resp.Name).
		Int("status", sent).
		Msg(resp.Message())

	defaultMetrics.countError(resp.Kind.String(), sent)
	observability.RecordError(c.Request.Context(), resp)

	// Only a body already on the wire wins; a bare status line still gets one.
	if c.Writer.Size() > 0 {
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(resp.StatusCode, ErrorBody{
		RequestID:     RequestIDFrom(c),
		ErrorResponse: resp,
	})
}
