package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"surveyhub/internal/service"
)

// LuckyDrawHandler handles lucky draw endpoints.
type LuckyDrawHandler struct {
	svc service.LuckyDrawService
}

// NewLuckyDrawHandler creates a new lucky draw handler.
func NewLuckyDrawHandler(svc service.LuckyDrawService) *LuckyDrawHandler {
	return &LuckyDrawHandler{svc: svc}
}

// Draw godoc
// @Summary Draw a winner
// @Tags lucky-draw
// @Produce json
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /lucky-draw/draw [post]
func (h *LuckyDrawHandler) Draw(c echo.Context) error {
	winner, err := h.svc.Draw(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, winner)
}

// PastWinners godoc
// @Summary List winners
// @Tags lucky-draw
// @Produce json
// @Success 200 {array} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /lucky-draw/winners [get]
func (h *LuckyDrawHandler) PastWinners(c echo.Context) error {
	winners, err := h.svc.PastWinners(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, winners)
}

// DeleteWinner godoc
// @Summary Return a winner to the pool
// @Tags lucky-draw
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /lucky-draw/winners/{id} [delete]
func (h *LuckyDrawHandler) DeleteWinner(c echo.Context) error {
	user, err := h.svc.DeleteWinner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
