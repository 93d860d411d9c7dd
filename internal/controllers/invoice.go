package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
)

type InvoiceController struct {
	invoiceService services.InvoiceServiceInterface
	logger         *zap.Logger
}

func NewInvoiceController(invoiceService services.InvoiceServiceInterface, logger *zap.Logger) *InvoiceController {
	return &InvoiceController{invoiceService: invoiceService, logger: logger}
}

func (ctrl *InvoiceController) GetAll(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.invoiceService.GetAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Список счетов", res.List, res.Total, filter.Page, filter.Limit)
}

func (ctrl *InvoiceController) GetByID(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.invoiceService.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Счёт", res)
}

func (ctrl *InvoiceController) Create(c echo.Context) error {
	var payload dto.CreateInvoiceDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.invoiceService.Create(c.Request().Context(), payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Счёт выставлен", res)
}

func (ctrl *InvoiceController) MarkPaid(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.invoiceService.MarkPaid(c.Request().Context(), id)
	if err != nil {
		ctrl.logger.Error("Ошибка оплаты счёта", zap.Uint64("invoice_id", id), zap.Error(err))
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Счёт оплачен", res)
}

func (ctrl *InvoiceController) Cancel(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.invoiceService.Cancel(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Счёт отменён", res)
}

func (ctrl *InvoiceController) GenerateStatement(c echo.Context) error {
	var payload dto.GenerateStatementDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.invoiceService.GenerateMonthlyStatement(c.Request().Context(), payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Акт сформирован", res)
}
