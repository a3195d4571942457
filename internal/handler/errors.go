// Package handler exposes the HTTP handlers of the booking API.  Handlers
// bind and shape requests, delegate to the service layer and translate
// service error kinds into status codes.  Every error body has the form
// {"error": "<message>"}.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/experience-booking/internal/service"
)

// statusFor maps a service error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrCapacity),
		errors.Is(err, service.ErrLimitExceeded):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON.  Storage and unclassified errors always
// use fallback so internal details never reach the client.
func respondError(c echo.Context, err error, fallback string) error {
	status := statusFor(err)
	msg := fallback
	if status != http.StatusInternalServerError {
		msg = service.Message(err, fallback)
	}
	return c.JSON(status, echo.Map{"error": msg})
}
