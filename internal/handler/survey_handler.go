package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"surveyhub/internal/model"
	"surveyhub/internal/service"
)

// SurveyHandler handles survey endpoints.
type SurveyHandler struct {
	svc service.SurveyService
}

// NewSurveyHandler creates a new survey handler.
func NewSurveyHandler(svc service.SurveyService) *SurveyHandler {
	return &SurveyHandler{svc: svc}
}

// SurveyRequest represents a survey create or update payload.
type SurveyRequest struct {
	Title       string                   `json:"title" validate:"required"`
	Description string                   `json:"description"`
	Workshop    bool                     `json:"workshop"`
	Questions   []model.Question         `json:"questions" validate:"dive"`
	Permissions []model.SurveyPermission `json:"permissions" validate:"dive"`
}

func (r SurveyRequest) input() service.SurveyInput {
	return service.SurveyInput{
		Title:       r.Title,
		Description: r.Description,
		Workshop:    r.Workshop,
		Questions:   r.Questions,
		Permissions: r.Permissions,
	}
}

// CloneSurveyRequest overrides fields of the clone.
type CloneSurveyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GetSurvey godoc
// @Summary Get survey by id
// @Tags surveys
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} model.Survey
// @Failure 404 {object} errors.ErrorResponse
// @Router /surveys/{id} [get]
func (h *SurveyHandler) GetSurvey(c echo.Context) error {
	survey, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, survey)
}

// ListSurveys godoc
// @Summary List surveys with response counts
// @Tags surveys
// @Produce json
// @Success 200 {array} model.SurveySummary
// @Failure 401 {object} errors.ErrorResponse
// @Router /surveys [get]
func (h *SurveyHandler) ListSurveys(c echo.Context) error {
	surveys, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, surveys)
}

// CreateSurvey godoc
// @Summary Create survey
// @Tags surveys
// @Accept json
// @Produce json
// @Param request body SurveyRequest true "Survey"
// @Success 201 {object} model.Survey
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /surveys [post]
func (h *SurveyHandler) CreateSurvey(c echo.Context) error {
	var req SurveyRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	survey, err := h.svc.Create(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, survey)
}

// UpdateSurvey godoc
// @Summary Replace survey content
// @Tags surveys
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Param request body SurveyRequest true "Survey"
// @Success 200 {object} model.Survey
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /surveys/{id} [put]
func (h *SurveyHandler) UpdateSurvey(c echo.Context) error {
	var req SurveyRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	survey, err := h.svc.Update(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, survey)
}

// DeleteSurvey godoc
// @Summary Delete survey and its responses
// @Tags surveys
// @Param id path string true "Survey ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /surveys/{id} [delete]
func (h *SurveyHandler) DeleteSurvey(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CloneSurvey godoc
// @Summary Clone survey
// @Tags surveys
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Param request body CloneSurveyRequest false "Overrides"
// @Success 201 {object} model.Survey
// @Failure 404 {object} errors.ErrorResponse
// @Router /surveys/{id}/clone [post]
func (h *SurveyHandler) CloneSurvey(c echo.Context) error {
	var req CloneSurveyRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	survey, err := h.svc.Clone(c.Request().Context(), c.Param("id"), service.CloneInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, survey)
}
