package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
)

type SubscriptionController struct {
	subscriptionService services.SubscriptionServiceInterface
	logger              *zap.Logger
}

func NewSubscriptionController(subscriptionService services.SubscriptionServiceInterface, logger *zap.Logger) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService, logger: logger}
}

func (ctrl *SubscriptionController) GetAll(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.subscriptionService.GetAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Список подписок", res.List, res.Total, filter.Page, filter.Limit)
}

func (ctrl *SubscriptionController) GetByID(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.subscriptionService.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Подписка", res)
}

func (ctrl *SubscriptionController) Create(c echo.Context) error {
	var payload dto.CreateSubscriptionDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.subscriptionService.Create(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Info("Подписка не создана",
			zap.Uint64s("employee_ids", payload.EmployeeIDs),
			zap.String("combo", payload.ComboType),
			zap.Error(err),
		)
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Подписки оформлены", res)
}

func (ctrl *SubscriptionController) Pause(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	var payload dto.PauseSubscriptionDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.subscriptionService.Pause(c.Request().Context(), id, payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Подписка приостановлена", res)
}

func (ctrl *SubscriptionController) Resume(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.subscriptionService.Resume(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Подписка возобновлена", res)
}

func (ctrl *SubscriptionController) Cancel(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.subscriptionService.Cancel(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Подписка отменена", res)
}

func (ctrl *SubscriptionController) UpdateCombo(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	var payload dto.UpdateComboDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.subscriptionService.UpdateCombo(c.Request().Context(), id, payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Комбо изменено", res)
}
