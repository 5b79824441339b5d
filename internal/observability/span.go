package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-api-scaffold/internal/apperr"
)

// RecordError annotates the active span with a normalized error response.
// Only server faults (5xx) mark the span status as Error; client errors are
// recorded as events.
func RecordError(ctx context.Context, resp apperr.ErrorResponse) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(
		attribute.String("error.kind", resp.Kind.String()),
		attribute.String("error.name", resp.Name),
		attribute.Int("http.response.status_code", resp.StatusCode),
	)
	span.RecordError(errors.New(resp.Message()))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Name)
	}
}
