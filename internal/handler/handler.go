package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"surveyhub/internal/errors"
)

// bindRequest decodes and validates the request body into req.
func bindRequest(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.NewHTTPError(http.StatusBadRequest, "invalid request body", errors.CodeBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return errors.NewHTTPError(http.StatusBadRequest, err.Error(), errors.CodeBadRequest)
	}
	return nil
}

// ErrorHandler renders every error as errors.ErrorResponse.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var out *errors.HTTPError
		var echoErr *echo.HTTPError
		if stderrors.As(err, &echoErr) {
			out = fromEchoError(echoErr)
		} else {
			out = errors.MapErrorToHTTP(err)
		}

		if out.StatusCode >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(out.StatusCode)
		} else {
			werr = c.JSON(out.StatusCode, out.ToErrorResponse())
		}
		if werr != nil {
			logger.Warn("write error response", zap.Error(werr))
		}
	}
}

func fromEchoError(he *echo.HTTPError) *errors.HTTPError {
	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		message = m
	} else if he.Message != nil {
		message = fmt.Sprint(he.Message)
	}

	switch {
	case he.Code == http.StatusUnauthorized || he.Code == http.StatusForbidden:
		return errors.NewHTTPError(http.StatusUnauthorized, "unauthorized", errors.CodeUnauthorized)
	case he.Code == http.StatusNotFound:
		return errors.NewHTTPError(he.Code, message, errors.CodeNotFound)
	case he.Code >= http.StatusInternalServerError:
		return errors.NewHTTPError(he.Code, "internal server error", errors.CodeInternal)
	default:
		return errors.NewHTTPError(he.Code, message, errors.CodeBadRequest)
	}
}
