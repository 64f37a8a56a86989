// Package middleware provides HTTP middleware for the document API.
package middleware

import (
	"net/http"
	"slices"

	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig selects the server spans otelgin starts
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are request paths that never get a span, such as health checks.
	SkipPaths []string
}

// Tracing starts a server span named "METHOD /route/:pattern" per request,
// continuing any trace context the caller sent. It passes requests through
// untouched when disabled.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	opts := []otelgin.Option{otelgin.WithPropagators(telemetry.Propagator())}
	if len(cfg.SkipPaths) > 0 {
		skip := slices.Clone(cfg.SkipPaths)
		opts = append(opts, otelgin.WithFilter(func(r *http.Request) bool {
			return !slices.Contains(skip, r.URL.Path)
		}))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher tags the server span with the request ID and the document
// path parameters once the handler is done, and marks 5xx responses as
// errors. It must run after Tracing.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(spanAttributes(c)...)
		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func spanAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	add := func(key attribute.Key, value string) {
		if value != "" {
			attrs = append(attrs, key.String(value))
		}
	}
	add("request_id", GetRequestID(c))
	add(telemetry.AttrDocType, c.Param("type"))
	add("document.id", c.Param("id"))
	return attrs
}
