package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"surveyhub/internal/auth"
	"surveyhub/internal/model"
	"surveyhub/internal/service"
)

// ResponseHandler handles survey response endpoints.
type ResponseHandler struct {
	svc service.ResponseService
}

// NewResponseHandler creates a new response handler.
func NewResponseHandler(svc service.ResponseService) *ResponseHandler {
	return &ResponseHandler{svc: svc}
}

// CreateResponseRequest represents a survey submission.
type CreateResponseRequest struct {
	Data  []model.Answer `json:"data" validate:"dive"`
	Token string         `json:"token"`
}

// CreateResponse godoc
// @Summary Submit answers to a survey
// @Tags responses
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Param request body CreateResponseRequest true "Answers and captcha token"
// @Success 201 {boolean} bool
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /surveys/{id}/responses [post]
func (h *ResponseHandler) CreateResponse(c echo.Context) error {
	var req CreateResponseRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	if _, err := h.svc.Create(c.Request().Context(), auth.CurrentUser(c), service.CreateResponseInput{
		SurveyID:     c.Param("id"),
		Answers:      req.Data,
		CaptchaToken: req.Token,
		RemoteIP:     c.RealIP(),
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, true)
}

// ListResponses godoc
// @Summary List a survey's responses
// @Tags responses
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {array} model.Response
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /surveys/{id}/responses [get]
func (h *ResponseHandler) ListResponses(c echo.Context) error {
	responses, err := h.svc.List(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, responses)
}

// SubmittedResponses godoc
// @Summary List the current user's responses
// @Tags responses
// @Produce json
// @Success 200 {array} model.Response
// @Failure 401 {object} errors.ErrorResponse
// @Router /responses/submitted [get]
func (h *ResponseHandler) SubmittedResponses(c echo.Context) error {
	responses, err := h.svc.Submitted(c.Request().Context(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, responses)
}
