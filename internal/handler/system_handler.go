package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"surveyhub/internal/errors"
)

// Pinger reports whether a backend is reachable.
type Pinger func(ctx context.Context) error

// Purger flushes the cache.
type Purger interface {
	Purge(ctx context.Context) error
}

// SystemHandler serves liveness and cache maintenance.
type SystemHandler struct {
	ping        Pinger
	cache       Purger
	logger      *zap.Logger
	startupTime time.Time
	now         func() time.Time
}

// NewSystemHandler creates a system handler; ping checks the database.
func NewSystemHandler(ping Pinger, cache Purger, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		ping:        ping,
		cache:       cache,
		logger:      logger,
		startupTime: time.Now().UTC(),
		now:         time.Now,
	}
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	OK          bool      `json:"ok"`
	Status      string    `json:"status"`
	Time        time.Time `json:"time"`
	StartupTime time.Time `json:"startupTime"`
}

// PurgeResponse acknowledges a cache flush.
type PurgeResponse struct {
	OK bool `json:"ok"`
}

// Health godoc
// @Summary Liveness check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /healthz [get]
func (h *SystemHandler) Health(c echo.Context) error {
	if err := h.ping(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		return errors.NewHTTPError(http.StatusInternalServerError, "DB failed initialization check", errors.CodeInternal)
	}
	return c.JSON(http.StatusOK, HealthResponse{
		OK:          true,
		Status:      "healthy",
		Time:        h.now().UTC(),
		StartupTime: h.startupTime,
	})
}

// PurgeCache godoc
// @Summary Flush the whole cache
// @Tags system
// @Produce json
// @Success 200 {object} PurgeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /cache/purge [post]
func (h *SystemHandler) PurgeCache(c echo.Context) error {
	if err := h.cache.Purge(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PurgeResponse{OK: true})
}
