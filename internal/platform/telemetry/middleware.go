package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request named "HTTP <method> <route>".
// It must sit outside the middleware that writes error responses so the
// final status is known when the span ends.
func Tracing(tp trace.TracerProvider) echo.MiddlewareFunc {
	tracer := tp.Tracer(instrumentationName)
	propagator := otel.GetTextMapPropagator()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			route := routeOf(c)
			ctx, span := tracer.Start(ctx, "HTTP "+req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("http.route", route),
					attribute.String("url.path", req.URL.Path),
				),
			)
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			status := c.Response().Status
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if rid, ok := c.Get("request_id").(string); ok {
				span.SetAttributes(attribute.String("request.id", rid))
			}
			if err != nil {
				span.RecordError(err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			return err
		}
	}
}

// Metrics records request counts and latency into m.
func Metrics(m *Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.active.Add(1)
			start := time.Now()

			err := next(c)

			m.active.Add(-1)
			status := strconv.Itoa(c.Response().Status)
			m.ObserveRequest(c.Request().Method, routeOf(c), status, time.Since(start))
			return err
		}
	}
}

func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}
