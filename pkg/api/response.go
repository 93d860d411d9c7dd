package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "yalla-business/pkg/errors"
)

type Response[T any] struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	Data       T               `json:"data,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type PaginationMeta struct {
	TotalCount uint64 `json:"total_count"`
	TotalPages int    `json:"total_pages"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Type    string                 `json:"type"`
	Action  string                 `json:"action,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// SuccessOne для возврата одного объекта
func SuccessOne[T any](c echo.Context, code int, message string, data T) error {
	return c.JSON(code, Response[T]{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SuccessList[T any](c echo.Context, message string, list []T, total uint64, page, limit int) error {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + uint64(limit) - 1) / uint64(limit))
	}

	if list == nil {
		list = make([]T, 0)
	}

	return c.JSON(http.StatusOK, Response[[]T]{
		Success: true,
		Message: message,
		Data:    list,
		Pagination: &PaginationMeta{
			TotalCount: total,
			TotalPages: totalPages,
			Page:       page,
			Limit:      limit,
		},
	})
}

// Resolve переводит любую ошибку в HTTP-статус и тело ответа.
func Resolve(err error) (int, ErrorBody) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus, ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Type:    appErr.Type,
			Action:  appErr.Action,
			Details: appErr.Details,
		}
	}

	var multiErr *apperrors.MultiValidationError
	if errors.As(err, &multiErr) {
		details := make(map[string]interface{}, len(multiErr.Fields))
		for field, msgs := range multiErr.Fields {
			details[field] = msgs
		}
		return http.StatusBadRequest, ErrorBody{
			Code:    "VALIDATION_ERROR",
			Message: "Проверьте правильность заполнения полей",
			Type:    apperrors.TypeValidation,
			Details: details,
		}
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make(map[string]interface{}, len(validationErrors))
		for _, fe := range validationErrors {
			details[fe.Field()] = []string{validationMessage(fe)}
		}
		return http.StatusBadRequest, ErrorBody{
			Code:    "VALIDATION_ERROR",
			Message: "Проверьте правильность заполнения полей",
			Type:    apperrors.TypeValidation,
			Details: details,
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, ErrorBody{
			Code:    http.StatusText(httpErr.Code),
			Message: fmt.Sprint(httpErr.Message),
			Type:    typeForStatus(httpErr.Code),
		}
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Code: "NOT_FOUND", Message: err.Error(), Type: apperrors.TypeNotFound}
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, ErrorBody{Code: "TOKEN_EXPIRED", Message: err.Error(), Type: apperrors.TypeAuth, Action: "REFRESH_TOKEN"}
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrTokenRevoked),
		errors.Is(err, apperrors.ErrTokenIsNotAccess),
		errors.Is(err, apperrors.ErrTokenIsNotRefresh),
		errors.Is(err, apperrors.ErrInvalidSigningMethod),
		errors.Is(err, apperrors.ErrEmptyAuthHeader),
		errors.Is(err, apperrors.ErrInvalidAuthHeader),
		errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Code: "UNAUTHORIZED", Message: err.Error(), Type: apperrors.TypeAuth, Action: "LOGIN"}
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, ErrorBody{Code: "FORBIDDEN", Message: err.Error(), Type: apperrors.TypeAuth}
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorBody{Code: "BAD_REQUEST", Message: err.Error(), Type: apperrors.TypeValidation}
	}

	return http.StatusInternalServerError, ErrorBody{
		Code:    "INTERNAL_ERROR",
		Message: "Внутренняя ошибка сервера",
		Type:    apperrors.TypeInternal,
	}
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	status, body := Resolve(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Необработанная ошибка",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err),
		)
	} else {
		logger.Debug("Ошибка запроса", zap.Int("status", status), zap.String("code", body.Code), zap.Error(err))
	}
	return c.JSON(status, ErrorEnvelope{Success: false, Error: body})
}

// NewHTTPErrorHandler - глобальный обработчик для ошибок, которые вернули хендлеры и middleware.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if respErr := ErrorResponse(c, err, logger); respErr != nil {
			logger.Error("Не удалось отправить ответ с ошибкой", zap.Error(respErr))
		}
	}
}

func typeForStatus(code int) string {
	switch {
	case code == http.StatusNotFound:
		return apperrors.TypeNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperrors.TypeAuth
	case code == http.StatusTooManyRequests:
		return apperrors.TypeRateLimit
	case code == http.StatusConflict:
		return apperrors.TypeConflict
	case code >= 500:
		return apperrors.TypeInternal
	default:
		return apperrors.TypeValidation
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "min":
		return fmt.Sprintf("минимальное значение: %s", fe.Param())
	case "max":
		return fmt.Sprintf("максимальное значение: %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("допустимые значения: %s", fe.Param())
	case "email", "custom_email":
		return "некорректный email"
	case "phone":
		return "некорректный номер телефона"
	case "hhmm":
		return "время должно быть в формате ЧЧ:ММ"
	case "date":
		return "дата должна быть в формате ГГГГ-ММ-ДД"
	case "month":
		return "месяц должен быть в формате ГГГГ-ММ"
	default:
		return fmt.Sprintf("не прошло проверку '%s'", fe.Tag())
	}
}
