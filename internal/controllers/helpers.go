package controllers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/pkg/api"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

// parseID читает uint64 из параметра пути.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewBadRequestError("Некорректный идентификатор: " + name)
	}
	return id, nil
}

func parseQueryID(c echo.Context, name string) (uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewBadRequestError("Некорректный параметр: " + name)
	}
	return id, nil
}

// bindAndValidate - Bind и Validate одной строкой; ошибки уже в формате apperrors.
func bindAndValidate(c echo.Context, payload interface{}) error {
	if err := c.Bind(payload); err != nil {
		return apperrors.NewBadRequestError("Неверный формат запроса")
	}
	return c.Validate(payload)
}

func filterFromQuery(c echo.Context) types.Filter {
	return utils.ParseFilterFromQuery(c.QueryParams())
}

func errorResponse(c echo.Context, err error, logger *zap.Logger) error {
	return api.ErrorResponse(c, err, utils.LoggerFromEcho(c, logger))
}
