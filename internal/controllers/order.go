package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
	apperrors "yalla-business/pkg/errors"
)

type OrderController struct {
	orderService services.OrderServiceInterface
	logger       *zap.Logger
}

func NewOrderController(orderService services.OrderServiceInterface, logger *zap.Logger) *OrderController {
	return &OrderController{orderService: orderService, logger: logger}
}

func (ctrl *OrderController) GetOrders(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.orderService.GetAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Список заказов", res.List, res.Total, filter.Page, filter.Limit)
}

func (ctrl *OrderController) GetToday(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.orderService.GetToday(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Заказы на сегодня", res.List, res.Total, filter.Page, filter.Limit)
}

func (ctrl *OrderController) FindOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.orderService.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Заказ", res)
}

func (ctrl *OrderController) Freeze(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	var payload dto.FreezeOrderDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.orderService.Freeze(c.Request().Context(), id, payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Заказ заморожен", res)
}

func (ctrl *OrderController) Unfreeze(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.orderService.Unfreeze(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Заказ разморожен", res)
}

// GetFreezeInfo: /orders/freeze-info?employee_id=&date=YYYY-MM-DD
func (ctrl *OrderController) GetFreezeInfo(c echo.Context) error {
	employeeID, err := parseQueryID(c, "employee_id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	if employeeID == 0 {
		return errorResponse(c, apperrors.NewBadRequestError("Не указан employee_id"), ctrl.logger)
	}
	res, err := ctrl.orderService.GetFreezeInfo(c.Request().Context(), employeeID, c.QueryParam("date"))
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Заморозки за неделю", res)
}

func (ctrl *OrderController) CreateGuestOrder(c echo.Context) error {
	var payload dto.CreateGuestOrderDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.orderService.CreateGuestOrder(c.Request().Context(), payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Гостевой заказ создан", res)
}

func (ctrl *OrderController) Cancel(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.orderService.CancelOrder(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Заказ отменён", res)
}
