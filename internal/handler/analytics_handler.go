package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"surveyhub/internal/auth"
	"surveyhub/internal/service"
)

// AnalyticsHandler serves dashboard aggregates.
type AnalyticsHandler struct {
	svc service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(svc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// ChartResponses godoc
// @Summary Per question option counts
// @Tags analytics
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {array} model.ChartData
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /surveys/{id}/analytics [get]
func (h *AnalyticsHandler) ChartResponses(c echo.Context) error {
	charts, err := h.svc.ChartResponses(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, charts)
}
