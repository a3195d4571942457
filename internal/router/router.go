// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/experience-booking/internal/handler"
)

// Handlers bundles everything RegisterRoutes mounts.  Cache wraps the
// catalog reads and RateLimit wraps the write endpoints; nil means none.
type Handlers struct {
	Experiences *handler.ExperienceHandler
	Bookings    *handler.BookingHandler
	Promos      *handler.PromoHandler
	Cache       echo.MiddlewareFunc
	RateLimit   echo.MiddlewareFunc
	Metrics     bool
}

// RegisterRoutes mounts the public API under /api plus the operational
// endpoints /healthz and /metrics at the root.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)
	if h.Metrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	api.GET("/health", handler.Health)

	read := chain(h.Cache)
	write := chain(h.RateLimit)

	api.GET("/experiences", h.Experiences.List, read...)
	api.GET("/experiences/:id", h.Experiences.Get, read...)

	api.POST("/bookings", h.Bookings.Create, write...)
	api.GET("/bookings/:referenceId", h.Bookings.Get)
	api.POST("/checkout/quote", h.Bookings.Quote, write...)

	api.POST("/promo/validate", h.Promos.Validate, write...)
}

func chain(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
