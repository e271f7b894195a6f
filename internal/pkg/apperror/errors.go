package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound                ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized            ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden               ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest              ErrorCode = "BAD_REQUEST"
	ErrCodeConflict                ErrorCode = "CONFLICT"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation              ErrorCode = "VALIDATION_ERROR"
	ErrCodeIllegalTransition       ErrorCode = "ILLEGAL_TRANSITION"
	ErrCodeDuplicateEarning        ErrorCode = "DUPLICATE_EARNING"
	ErrCodeDuplicateWebhook        ErrorCode = "DUPLICATE_WEBHOOK"
	ErrCodeNoPayableEarnings       ErrorCode = "NO_PAYABLE_EARNINGS"
	ErrCodeIncompletePayoutProfile ErrorCode = "INCOMPLETE_PAYOUT_PROFILE"
	ErrCodeProviderUnavailable     ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeOrphanedWebhookEvent    ErrorCode = "ORPHANED_WEBHOOK_EVENT"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeIllegalTransition, ErrCodeDuplicateEarning:
		return http.StatusConflict
	case ErrCodeNoPayableEarnings, ErrCodeIncompletePayoutProfile:
		return http.StatusUnprocessableEntity
	case ErrCodeProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code возвращает код ошибки, если err является AppError.
func Code(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

func is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Is сообщает, несёт ли err данный код.
func Is(err error, code ErrorCode) bool { return is(err, code) }

func IsNotFound(err error) bool          { return is(err, ErrCodeNotFound) }
func IsValidation(err error) bool        { return is(err, ErrCodeValidation) }
func IsForbidden(err error) bool         { return is(err, ErrCodeForbidden) }
func IsIllegalTransition(err error) bool { return is(err, ErrCodeIllegalTransition) }
func IsDuplicateEarning(err error) bool  { return is(err, ErrCodeDuplicateEarning) }
func IsOrphanedWebhook(err error) bool   { return is(err, ErrCodeOrphanedWebhookEvent) }

var (
	ErrOrderNotFound     = New(ErrCodeNotFound, "заказ не найден")
	ErrBookingNotFound   = New(ErrCodeNotFound, "бронирование не найдено")
	ErrPaymentNotFound   = New(ErrCodeNotFound, "платёж не найден")
	ErrPayoutNotFound    = New(ErrCodeNotFound, "выплата не найдена")
	ErrProfileNotFound   = New(ErrCodeNotFound, "профиль исполнителя не найден")
	ErrUnauthorized      = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden         = New(ErrCodeForbidden, "недостаточно прав")
	ErrNoPayableEarnings = New(ErrCodeNoPayableEarnings, "нет начислений, доступных к выплате")
	ErrIncompleteProfile = New(ErrCodeIncompletePayoutProfile, "платёжные реквизиты исполнителя не подтверждены")
)
