package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
)

type BusinessConfigController struct {
	configService services.BusinessConfigServiceInterface
	logger        *zap.Logger
}

func NewBusinessConfigController(configService services.BusinessConfigServiceInterface, logger *zap.Logger) *BusinessConfigController {
	return &BusinessConfigController{configService: configService, logger: logger}
}

func (ctrl *BusinessConfigController) GetAll(c echo.Context) error {
	res, err := ctrl.configService.GetAll(c.Request().Context())
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Настройки", res)
}

func (ctrl *BusinessConfigController) Get(c echo.Context) error {
	res, err := ctrl.configService.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Настройка", res)
}

func (ctrl *BusinessConfigController) Update(c echo.Context) error {
	key := c.Param("key")
	var payload dto.UpdateConfigDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.configService.Update(c.Request().Context(), key, payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	ctrl.logger.Info("Настройка изменена", zap.String("key", key), zap.String("value", res.Value))
	return api.SuccessOne(c, http.StatusOK, "Настройка сохранена", res)
}

func (ctrl *BusinessConfigController) ClearCache(c echo.Context) error {
	if err := ctrl.configService.ClearCache(c.Request().Context()); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Кеш настроек очищен", nil)
}
