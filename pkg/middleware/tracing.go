package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/paperqa/pkg/infra/tracing"
)

// Tracing starts a server span for every request except skipPaths. The span
// continues a trace propagated in the request headers. A nil tracer uses the
// global provider.
func Tracing(tracer trace.Tracer, skipPaths ...string) gin.HandlerFunc {
	if tracer == nil {
		tracer = otel.Tracer("paperqa.http")
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		if rid := GetRequestID(ctx); rid != "" {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			tracing.RecordError(ctx, fmt.Errorf("%s", http.StatusText(status)))
		}
	}
}
