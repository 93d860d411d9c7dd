package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenRevoked         = fmt.Errorf("токен отозван")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("токен доступа отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrAccountLocked      = fmt.Errorf("учётная запись временно заблокирована")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Общие
	ErrNotFound          = fmt.Errorf("запись не найдена")
	ErrBadRequest        = fmt.Errorf("неверный запрос")
	ErrInsufficientFunds = fmt.Errorf("недостаточно средств на балансе")
)

// Типы ошибок для поля error.type в ответе.
const (
	TypeValidation = "VALIDATION"
	TypeBusiness   = "BUSINESS"
	TypeAuth       = "AUTH"
	TypeNotFound   = "NOT_FOUND"
	TypeConflict   = "CONFLICT"
	TypeRateLimit  = "RATE_LIMIT"
	TypeInternal   = "INTERNAL"
)

// AppError - ошибка бизнес-логики с кодом, который понимает фронтенд.
type AppError struct {
	HTTPStatus int
	Code       string
	Message    string
	Type       string
	Action     string
	Details    map[string]interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithAction добавляет подсказку, что пользователю сделать дальше.
func (e *AppError) WithAction(action string) *AppError {
	e.Action = action
	return e
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func NewAppError(status int, code, errType, message string, err error) *AppError {
	return &AppError{HTTPStatus: status, Code: code, Type: errType, Message: message, Err: err}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "BAD_REQUEST", TypeValidation, message, nil)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, "NOT_FOUND", TypeNotFound, message, ErrNotFound)
}

func NewConflictError(code, message string) *AppError {
	return NewAppError(http.StatusConflict, code, TypeConflict, message, nil)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, "FORBIDDEN", TypeAuth, message, ErrForbidden)
}

// NewBusinessError - нарушение бизнес-правила (400) с машинным кодом.
func NewBusinessError(code, message string) *AppError {
	return NewAppError(http.StatusBadRequest, code, TypeBusiness, message, nil)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", TypeInternal, message, err)
}

// MultiValidationError собирает ошибки по нескольким полям сразу.
type MultiValidationError struct {
	Fields map[string][]string
}

func NewMultiValidationError() *MultiValidationError {
	return &MultiValidationError{Fields: make(map[string][]string)}
}

func (e *MultiValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *MultiValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// OrNil возвращает nil, если ошибок нет, чтобы не получить typed-nil.
func (e *MultiValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *MultiValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "ошибка валидации: " + strings.Join(parts, "; ")
}

// Code достаёт машинный код ошибки, если это AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
