package observability

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
	"github.com/tbourn/go-graceful-response/internal/pipeline"
)

// EventErrorIntercepted is the span event added for every envelope built
// from an error.
const EventErrorIntercepted = "error.intercepted"

// Classifier resolves the category of an error.
type Classifier func(error) (fault.Category, bool)

// TraceHook returns an after-hook that annotates the request span with the
// envelope produced for an error and marks the span as failed. Spans that
// are not recording are left alone.
func TraceHook(classify Classifier) pipeline.AfterFunc {
	return func(ctx context.Context, env domain.Envelope, err error) {
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		attrs := []attribute.KeyValue{
			attribute.String("envelope.code", env.Code),
			attribute.String("envelope.message", env.Message),
		}
		if classify != nil {
			if c, ok := classify(err); ok {
				attrs = append(attrs, attribute.String("error.category", string(c)))
			}
		}
		span.AddEvent(EventErrorIntercepted, trace.WithAttributes(attrs...))
		if err != nil {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, env.Code)
	}
}

// LogHook returns a before-hook that logs each accepted error with the
// request-scoped logger. Errors in the server branch of the hierarchy are
// logged at error level, the rest at debug. When enabled is false it
// returns nil, which the pipeline treats as "no hook".
func LogHook(enabled bool, classify Classifier, isServer func(fault.Category) bool) pipeline.BeforeFunc {
	if !enabled {
		return nil
	}
	return func(ctx context.Context, err error) {
		l := zerolog.Ctx(ctx)
		var c fault.Category
		if classify != nil {
			c, _ = classify(err)
		}

		ev := l.Debug()
		if c == "" || (isServer != nil && isServer(c)) {
			ev = l.Error()
		}
		ev.Err(err).Str("category", string(c)).Msg("error intercepted")
	}
}
