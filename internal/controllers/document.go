package controllers

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
	apperrors "yalla-business/pkg/errors"
)

type DocumentController struct {
	documentService services.DocumentServiceInterface
	logger          *zap.Logger
}

func NewDocumentController(documentService services.DocumentServiceInterface, logger *zap.Logger) *DocumentController {
	return &DocumentController{documentService: documentService, logger: logger}
}

func (ctrl *DocumentController) GetAll(c echo.Context) error {
	filter := filterFromQuery(c)
	res, err := ctrl.documentService.GetAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "Документы компании", res.List, res.Total, filter.Page, filter.Limit)
}

// Upload: multipart, поле file; company_id нужен только супер-админу.
func (ctrl *DocumentController) Upload(c echo.Context) error {
	companyID, err := parseQueryID(c, "company_id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, apperrors.NewBadRequestError("Файл не был передан"), ctrl.logger)
	}

	res, err := ctrl.documentService.Upload(c.Request().Context(), companyID, fileHeader)
	if err != nil {
		ctrl.logger.Error("Ошибка загрузки документа", zap.String("filename", fileHeader.Filename), zap.Error(err))
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Документ загружен", res)
}

func (ctrl *DocumentController) Download(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	file, err := ctrl.documentService.Download(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return streamFile(c, file, "attachment")
}

func (ctrl *DocumentController) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	if err := ctrl.documentService.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Документ удалён", dto.IDResponseDTO{ID: id})
}

// streamFile отдаёт файл из хранилища и закрывает Reader.
func streamFile(c echo.Context, file *services.DownloadFile, disposition string) error {
	defer file.Reader.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType(disposition, map[string]string{"filename": file.Name}))
	contentType := file.MimeType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, file.Reader)
}
