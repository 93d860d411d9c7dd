package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"yalla-business/internal/entities"
	apperrors "yalla-business/pkg/errors"
)

// Машинные коды бизнес-ошибок. Фронтенд показывает по ним свои тексты.
const (
	CodeSubscriptionTooShort = "SUBSCRIPTION_TOO_SHORT"
	CodeSubscriptionOverlap  = "SUBSCRIPTION_OVERLAP"
	CodeNoWorkingDays        = "NO_WORKING_DAYS"
	CodeInsufficientBudget   = "INSUFFICIENT_BUDGET"
	CodeFreezeLimitExceeded  = "FREEZE_LIMIT_EXCEEDED"
	CodeDateInPast           = "DATE_IN_PAST"
	CodeCutoffPassed         = "CUTOFF_PASSED"
	CodeInvalidTransition    = "INVALID_STATUS_TRANSITION"
	CodeAddressImmutable     = "ADDRESS_IMMUTABLE"
	CodeServiceTypeLocked    = "SERVICE_TYPE_LOCKED"
	CodeServiceTypeMismatch  = "SERVICE_TYPE_MISMATCH"
	CodeEmployeePhoneExists  = "EMPLOYEE_PHONE_EXISTS"
	CodeEmployeeInactive     = "EMPLOYEE_INACTIVE"
	CodeCompensationLimit    = "COMPENSATION_LIMIT_EXCEEDED"
	CodeUnknownCombo         = "UNKNOWN_COMBO_TYPE"
	CodeUserInactive         = "USER_INACTIVE"
	CodeUserExists           = "USER_ALREADY_EXISTS"
	CodeCompanyBlocked       = "COMPANY_BLOCKED"
	CodeProjectHasEmployees  = "PROJECT_HAS_EMPLOYEES"
	CodeAccountLocked        = "ACCOUNT_LOCKED"
	CodeInvalidConfigValue   = "INVALID_CONFIG_VALUE"
	CodeUnknownConfigKey     = "UNKNOWN_CONFIG_KEY"
)

func errSubscriptionTooShort(minDays, days int) error {
	return apperrors.NewBusinessError(CodeSubscriptionTooShort,
		fmt.Sprintf("Минимальный срок подписки - %d дней", minDays)).
		WithDetails(map[string]interface{}{"min_days": minDays, "days": days})
}

func errSubscriptionOverlap(employeeID uint64, name string) error {
	return apperrors.NewConflictError(CodeSubscriptionOverlap,
		fmt.Sprintf("У сотрудника %s уже есть подписка на эти даты", name)).
		WithDetails(map[string]interface{}{"employee_id": employeeID})
}

func errNoWorkingDays(employeeID uint64) error {
	return apperrors.NewBusinessError(CodeNoWorkingDays, "В выбранном периоде нет рабочих дней сотрудника").
		WithDetails(map[string]interface{}{"employee_id": employeeID})
}

func errInsufficientBudget(required int64) error {
	return apperrors.NewBusinessError(CodeInsufficientBudget, "Недостаточно средств на балансе компании").
		WithAction("TOP_UP").
		WithDetails(map[string]interface{}{"required": required})
}

func errFreezeLimit(maxPerWeek int) error {
	return apperrors.NewConflictError(CodeFreezeLimitExceeded,
		fmt.Sprintf("Можно заморозить не более %d дней в неделю", maxPerWeek)).
		WithDetails(map[string]interface{}{"max_per_week": maxPerWeek})
}

func errDateInPast(date time.Time) error {
	return apperrors.NewBusinessError(CodeDateInPast, "Нельзя изменить прошедший день").
		WithDetails(map[string]interface{}{"date": date.Format("2006-01-02")})
}

func errCutoffPassed(cutoff string) error {
	return apperrors.NewBusinessError(CodeCutoffPassed,
		fmt.Sprintf("Изменения на сегодня принимаются до %s", cutoff)).
		WithDetails(map[string]interface{}{"cutoff_time": cutoff})
}

func errInvalidTransition(from, to entities.Status) error {
	return apperrors.NewConflictError(CodeInvalidTransition,
		fmt.Sprintf("Нельзя перевести из статуса «%s» в «%s»", from, to)).
		WithDetails(map[string]interface{}{"from": from, "to": to})
}

func errAddressImmutable() error {
	return apperrors.NewBusinessError(CodeAddressImmutable, "Адрес проекта нельзя изменить после создания")
}

func errServiceTypeLocked() error {
	return apperrors.NewConflictError(CodeServiceTypeLocked, "Нельзя сменить тип обслуживания, пока в проекте есть сотрудники")
}

func errEmployeePhoneExists(phone string) error {
	return apperrors.NewConflictError(CodeEmployeePhoneExists, "Сотрудник с таким телефоном уже существует").
		WithDetails(map[string]interface{}{"phone": phone})
}

func errCompensationLimit(limit, spent int64) error {
	return apperrors.NewBusinessError(CodeCompensationLimit, "Превышен месячный лимит компенсации сотрудника").
		WithDetails(map[string]interface{}{"limit": limit, "spent": spent, "remaining": limit - spent})
}

func errUnknownCombo(combo string) error {
	return apperrors.NewBusinessError(CodeUnknownCombo, fmt.Sprintf("Неизвестный тип комбо: %s", combo))
}

func errUserInactive() error {
	return apperrors.NewAppError(http.StatusForbidden, CodeUserInactive, apperrors.TypeAuth, "Пользователь деактивирован", nil)
}

func errCompanyBlocked() error {
	return apperrors.NewAppError(http.StatusForbidden, CodeCompanyBlocked, apperrors.TypeAuth, "Компания заблокирована", nil)
}

// ledgerError переводит отказ условного списания в бизнес-ошибку.
func ledgerError(err error, required int64) error {
	if errors.Is(err, apperrors.ErrInsufficientFunds) {
		return errInsufficientBudget(required)
	}
	return notFound(err, "Компания не найдена")
}
