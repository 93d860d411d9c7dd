package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/services"
	"yalla-business/pkg/types"
)

type ExportController struct {
	exportService services.ExportServiceInterface
	logger        *zap.Logger
	now           func() time.Time
}

func NewExportController(exportService services.ExportServiceInterface, logger *zap.Logger) *ExportController {
	return &ExportController{exportService: exportService, logger: logger, now: time.Now}
}

func (ctrl *ExportController) Employees(c echo.Context) error {
	return ctrl.export(c, "employees", ctrl.exportService.ExportEmployees)
}

func (ctrl *ExportController) Orders(c echo.Context) error {
	return ctrl.export(c, "orders", ctrl.exportService.ExportOrders)
}

func (ctrl *ExportController) Transactions(c echo.Context) error {
	return ctrl.export(c, "transactions", ctrl.exportService.ExportTransactions)
}

type exportFunc func(ctx context.Context, filter types.Filter) (*services.ExportTable, error)

// export: ?format=csv|xlsx, остальные параметры - обычный фильтр списка.
func (ctrl *ExportController) export(c echo.Context, prefix string, load exportFunc) error {
	format := services.ExportFormatCSV
	if strings.EqualFold(c.QueryParam("format"), services.ExportFormatXLSX) {
		format = services.ExportFormatXLSX
	}

	table, err := load(c.Request().Context(), filterFromQuery(c))
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}

	fileName := services.ExportFileName(prefix, format, ctrl.now())
	c.Response().Header().Set(echo.HeaderContentType, services.ExportContentType(format))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	c.Response().WriteHeader(http.StatusOK)

	if err := services.WriteExport(c.Response().Writer, table, format); err != nil {
		// заголовки уже ушли, остаётся только залогировать
		ctrl.logger.Error("Ошибка записи выгрузки", zap.String("file", fileName), zap.Error(err))
		return nil
	}
	return nil
}
