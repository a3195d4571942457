package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/experience-booking/internal/service"
)

// PromoValidator checks promo codes.
type PromoValidator interface {
	Validate(ctx context.Context, code string, amount float64) (*service.PromoResult, error)
}

// PromoHandler serves promo validation.
type PromoHandler struct {
	Promos PromoValidator
}

// NewPromoHandler constructs a PromoHandler.
func NewPromoHandler(promos PromoValidator) *PromoHandler {
	if promos == nil {
		panic("nil promo validator passed to NewPromoHandler")
	}
	return &PromoHandler{Promos: promos}
}

type validatePromoRequest struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}

// Validate handles POST /api/promo/validate.  Body: {"code", "amount"}.
// A valid code yields {"valid": true, "discount", "discountType",
// "discountValue"}; validation never consumes a use of the code.
func (h *PromoHandler) Validate(c echo.Context) error {
	var body validatePromoRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	res, err := h.Promos.Validate(c.Request().Context(), body.Code, body.Amount)
	if err != nil {
		return respondError(c, err, "Failed to validate promo code")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid":         true,
		"discount":      res.Discount,
		"discountType":  res.DiscountType,
		"discountValue": res.DiscountValue,
	})
}
