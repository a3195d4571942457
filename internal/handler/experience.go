package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/experience-booking/internal/model"
)

// Catalog is the read side of the catalog service.
type Catalog interface {
	List(ctx context.Context, search string) ([]*model.Experience, error)
	Get(ctx context.Context, id string) (*model.Experience, error)
}

// ExperienceHandler serves the public catalog.  No authentication is
// required.
type ExperienceHandler struct {
	Catalog Catalog
}

// NewExperienceHandler constructs an ExperienceHandler.
func NewExperienceHandler(catalog Catalog) *ExperienceHandler {
	if catalog == nil {
		panic("nil catalog passed to NewExperienceHandler")
	}
	return &ExperienceHandler{Catalog: catalog}
}

// List handles GET /api/experiences.  The optional ?search= parameter
// filters by name, description or location.  The response is a bare JSON
// array, empty when nothing matches.
func (h *ExperienceHandler) List(c echo.Context) error {
	items, err := h.Catalog.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return respondError(c, err, "Failed to fetch experiences")
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /api/experiences/:id.
func (h *ExperienceHandler) Get(c echo.Context) error {
	exp, err := h.Catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to fetch experience")
	}
	return c.JSON(http.StatusOK, exp)
}
