package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/experience-booking/internal/model"
	"github.com/iliyamo/experience-booking/internal/service"
)

// Bookings is the booking service as seen by HTTP.
type Bookings interface {
	CreateBooking(ctx context.Context, in service.CreateBookingInput) (*service.BookingResult, error)
	GetBooking(ctx context.Context, referenceID string) (*model.Booking, error)
	Quote(ctx context.Context, in service.QuoteInput) (*service.QuoteResult, error)
}

// BookingHandler serves booking creation, lookup and price quotes.
type BookingHandler struct {
	Bookings Bookings
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings Bookings) *BookingHandler {
	if bookings == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings}
}

// Create handles POST /api/bookings.  On success it returns 201 with
// {"success": true, "referenceId", "booking"}.  Missing fields and
// unavailable slots yield 400, an unknown experience 404.
func (h *BookingHandler) Create(c echo.Context) error {
	var in service.CreateBookingInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	res, err := h.Bookings.CreateBooking(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err, "Failed to create booking")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"referenceId": res.ReferenceID,
		"booking":     res.Booking,
	})
}

// Get handles GET /api/bookings/:referenceId.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.Bookings.GetBooking(c.Request().Context(), c.Param("referenceId"))
	if err != nil {
		return respondError(c, err, "Failed to fetch booking")
	}
	return c.JSON(http.StatusOK, b)
}

// Quote handles POST /api/checkout/quote.  Body: {"experienceId",
// "quantity", "promoCode"}.
func (h *BookingHandler) Quote(c echo.Context) error {
	var in service.QuoteInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	q, err := h.Bookings.Quote(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err, "Failed to compute quote")
	}
	return c.JSON(http.StatusOK, q)
}
