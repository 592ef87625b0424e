package main

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/medinotes/notes-api/internal/config"
	"github.com/medinotes/notes-api/internal/platform/auth"
	"github.com/medinotes/notes-api/internal/platform/db"
	"github.com/medinotes/notes-api/internal/platform/middleware"
	"github.com/medinotes/notes-api/internal/platform/telemetry"
	"github.com/medinotes/notes-api/pkg/pagination"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

const (
	maxBodySize = "1M"
	// requestTimeout leaves room for one AI call plus its JSON retry.
	requestTimeout = 90 * time.Second
)

// routeRegistrar is implemented by every domain handler.
type routeRegistrar interface {
	RegisterRoutes(api *echo.Group)
}

type routerDeps struct {
	cfg         *config.Config
	logger      zerolog.Logger
	tokens      *auth.TokenIssuer
	revocations auth.RevocationChecker
	probe       db.Probe
	metrics     *telemetry.Registry
	audit       []middleware.AuditRecorder
	handlers    []routeRegistrar
}

func newRouter(d routerDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(d.logger)

	e.Pre(echomw.RemoveTrailingSlash())

	// Tracing and Metrics wrap Logger, which commits error responses, so
	// both see the final status code.
	e.Use(middleware.RequestID())
	e.Use(telemetry.Tracing(otel.GetTracerProvider()))
	e.Use(telemetry.Metrics(d.metrics))
	e.Use(middleware.Logger(d.logger))
	e.Use(middleware.Recovery(d.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		ExposeHeaders:    []string{pagination.TotalCountHeader, pagination.HasMoreHeader, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.RateLimit(rateLimitConfig(d.cfg)))
	e.Use(middleware.RequestTimeout(requestTimeout))
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:      d.tokens,
		Revocations: d.revocations,
		Skipper:     auth.AuthSkipper,
	}))
	e.Use(middleware.Audit(d.logger, d.audit...))

	e.GET("/health", healthHandler(version))
	e.GET("/health/db", db.HealthHandler(d.probe))
	e.GET("/metrics", d.metrics.Handler())

	api := e.Group("")
	for _, h := range d.handlers {
		h.RegisterRoutes(api)
	}
	return e
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	return rl
}

func healthHandler(v string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"version": v,
		})
	}
}
