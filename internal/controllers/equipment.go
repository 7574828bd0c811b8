package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ccm-system/internal/dto"
	"ccm-system/internal/services"
	apperrors "ccm-system/pkg/errors"
	"ccm-system/pkg/utils"
)

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(service services.EquipmentServiceInterface, logger *zap.Logger) *EquipmentController {
	return &EquipmentController{equipmentService: service, logger: logger}
}

// List answers with a bare JSON array: the panel's list fetch predates the
// success envelope and still expects the raw shape.
func (c *EquipmentController) List(ctx echo.Context) error {
	status := ctx.QueryParam("status")

	list, err := c.equipmentService.List(ctx.Request().Context(), status)
	if err != nil {
		c.logger.Error("equipment list failed", zap.String("status", status), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.JSON(http.StatusOK, list)
}

// StatusCounts also keeps the legacy raw shape: {"在廠": 12, ...}.
func (c *EquipmentController) StatusCounts(ctx echo.Context) error {
	counts, err := c.equipmentService.StatusCounts(ctx.Request().Context())
	if err != nil {
		c.logger.Error("status counts failed", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (c *EquipmentController) Create(ctx echo.Context) error {
	var payload dto.CreateEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, err.Error(), err), c.logger)
	}

	created, err := c.equipmentService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, http.StatusCreated, map[string]interface{}{"data": created})
}

func (c *EquipmentController) Update(ctx echo.Context) error {
	ccmID := ctx.Param("ccm_id")

	var payload dto.UpdateEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, err.Error(), err), c.logger)
	}

	updated, err := c.equipmentService.Update(ctx.Request().Context(), ccmID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, http.StatusOK, map[string]interface{}{"data": updated})
}

func (c *EquipmentController) BatchUpdate(ctx echo.Context) error {
	var items []dto.BatchUpdateItemDTO
	if err := ctx.Bind(&items); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err), c.logger)
	}
	for i := range items {
		if err := ctx.Validate(&items[i]); err != nil {
			return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, err.Error(), err), c.logger)
		}
	}

	updated, err := c.equipmentService.BatchUpdate(ctx.Request().Context(), items)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, http.StatusOK, map[string]interface{}{"updated": updated})
}

func (c *EquipmentController) ForceDelete(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "invalid equipment id", err), c.logger)
	}

	var payload dto.ForceDeleteDTO
	_ = ctx.Bind(&payload) // body is optional, updater falls back to the token identity

	if err := c.equipmentService.ForceDelete(ctx.Request().Context(), id, payload.UpdateBy); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, http.StatusOK, nil)
}

func (c *EquipmentController) Logs(ctx echo.Context) error {
	ccmID := ctx.Param("ccm_id")

	logs, err := c.equipmentService.Logs(ctx.Request().Context(), ccmID)
	if err != nil {
		c.logger.Error("log fetch failed", zap.String("ccm_id", ccmID), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, http.StatusOK, map[string]interface{}{"data": logs})
}
