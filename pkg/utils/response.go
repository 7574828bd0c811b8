package utils

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "ccm-system/pkg/errors"
)

// The wire envelope the frontend checks on every call: HTTP 200 does not imply
// success, consumers look at the "success" field.
type envelope map[string]interface{}

// SuccessResponse writes {"success": true, ...extra}.
func SuccessResponse(ctx echo.Context, code int, extra map[string]interface{}) error {
	body := envelope{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	return ctx.JSON(code, body)
}

// ErrorResponse resolves the status code and user-facing message for err and
// writes {"success": false, "error": message}.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := apperrors.StatusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error("internal error", zap.Error(err))
	}
	return ctx.JSON(code, envelope{
		"success": false,
		"error":   apperrors.MessageFor(err),
	})
}
