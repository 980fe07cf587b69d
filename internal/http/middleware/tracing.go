package middleware

import (
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request. A nil provider means the global
// one installed by otel.Init.
func Tracing(tp trace.TracerProvider) fiber.Handler {
	var opts []otelfiber.Option
	if tp != nil {
		opts = append(opts, otelfiber.WithTracerProvider(tp))
	}
	return otelfiber.Middleware(opts...)
}
