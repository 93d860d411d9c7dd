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

type NewsController struct {
	newsService services.NewsServiceInterface
	logger      *zap.Logger
}

func NewNewsController(newsService services.NewsServiceInterface, logger *zap.Logger) *NewsController {
	return &NewsController{newsService: newsService, logger: logger}
}

func (ctrl *NewsController) GetAll(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.newsService.GetAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Новости", res.List, res.Total, filter.Page, filter.Limit)
}

func (ctrl *NewsController) GetByID(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.newsService.GetByID(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Новость", res)
}

func (ctrl *NewsController) Create(c echo.Context) error {
	var payload dto.CreateNewsDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.newsService.Create(c.Request().Context(), payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Новость опубликована", res)
}

func (ctrl *NewsController) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	var payload dto.UpdateNewsDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	res, err := ctrl.newsService.Update(c.Request().Context(), id, payload)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Новость обновлена", res)
}

func (ctrl *NewsController) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	if err := ctrl.newsService.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Новость удалена", dto.IDResponseDTO{ID: id})
}

func (ctrl *NewsController) UploadImage(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, apperrors.NewBadRequestError("Файл не был передан"), ctrl.logger)
	}
	res, err := ctrl.newsService.UploadImage(c.Request().Context(), id, fileHeader)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Изображение загружено", res)
}

func (ctrl *NewsController) Image(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	file, err := ctrl.newsService.OpenImage(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return streamFile(c, file, "inline")
}

func (ctrl *NewsController) MarkRead(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	if err := ctrl.newsService.MarkRead(c.Request().Context(), id); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Отмечено как прочитанное", dto.IDResponseDTO{ID: id})
}

func (ctrl *NewsController) UnreadCount(c echo.Context) error {
	res, err := ctrl.newsService.UnreadCount(c.Request().Context())
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Непрочитанные новости", res)
}
