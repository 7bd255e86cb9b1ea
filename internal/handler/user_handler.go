package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"surveyhub/internal/auth"
	"surveyhub/internal/service"
)

// UserHandler serves the signed-in user's own profile.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateMeRequest represents a profile update.
type UpdateMeRequest struct {
	Name  string `json:"name" validate:"required"`
	NRIC  string `json:"nric" validate:"required,nric"`
	Phone string `json:"phone" validate:"required,phone"`
	Token string `json:"token"`
}

// AvatarUploadRequest names the content type of the image to upload.
type AvatarUploadRequest struct {
	ContentType string `json:"contentType" validate:"required"`
}

// GetMe godoc
// @Summary Current user
// @Tags me
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	return c.JSON(http.StatusOK, auth.CurrentUser(c))
}

// UpdateMe godoc
// @Summary Update the current user's profile
// @Tags me
// @Accept json
// @Produce json
// @Param request body UpdateMeRequest true "Profile"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req UpdateMeRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	user, err := h.svc.UpdateProfile(c.Request().Context(), auth.CurrentUser(c).ID, service.UpdateProfileInput{
		Name:         req.Name,
		NRIC:         req.NRIC,
		Phone:        req.Phone,
		CaptchaToken: req.Token,
		RemoteIP:     c.RealIP(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// AvatarUpload godoc
// @Summary Presign an avatar upload
// @Tags me
// @Accept json
// @Produce json
// @Param request body AvatarUploadRequest true "Content type"
// @Success 200 {object} storage.Upload
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me/avatar [post]
func (h *UserHandler) AvatarUpload(c echo.Context) error {
	var req AvatarUploadRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	upload, err := h.svc.AvatarUpload(c.Request().Context(), auth.CurrentUser(c).ID, req.ContentType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, upload)
}
