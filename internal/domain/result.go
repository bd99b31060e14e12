package domain

import (
	"context"
	"encoding/json"
	"errors"
)

// Machine-readable failure codes. The set is closed: tools never emit a code
// outside this list.
const (
	CodeValidation      = "validation_error"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeUnauthorized    = "unauthorized"
	CodeRateLimited     = "rate_limited"
	CodeCRMUnavailable  = "crm_unavailable"
	CodeCRMBadResponse  = "crm_bad_response"
	CodeCRMError        = "crm_error"
	CodeNetwork         = "network_error"
	CodeInvalidResponse = "invalid_response"
	CodeHTTP            = "http_error"
	CodeInternal        = "internal_error"
)

// Result is the envelope every tool handler returns. It is either ok with a
// payload or failed with a code from the closed set plus a user-facing
// Russian message. The zero value is a failed result with no code; always use
// the constructors.
type Result[T any] struct {
	ok   bool
	data T
	code string
	msg  string
}

func OK[T any](data T) Result[T] {
	return Result[T]{ok: true, data: data}
}

func Err[T any](code, msg string) Result[T] {
	if msg == "" {
		msg = UserMessage(code)
	}
	return Result[T]{code: code, msg: msg}
}

// ErrFrom maps an internal error onto a failed Result using the sentinel
// taxonomy.
func ErrFrom[T any](err error) Result[T] {
	return Err[T](CodeFromError(err), "")
}

func (r Result[T]) IsOK() bool      { return r.ok }
func (r Result[T]) Data() T         { return r.data }
func (r Result[T]) Code() string    { return r.code }
func (r Result[T]) Message() string { return r.msg }

type resultError struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// MarshalJSON renders the payload directly on success and a {code, error}
// object on failure. Handlers therefore never leak internal error text.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(r.data)
	}
	return json.Marshal(resultError{Code: r.code, Error: r.msg})
}

// CodeFromError translates the sentinel taxonomy into a Result code.
// Unrecognized errors map to internal_error so the closed set holds.
func CodeFromError(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrCRMUnavailable):
		return CodeCRMUnavailable
	case errors.Is(err, ErrBadResponse):
		return CodeCRMBadResponse
	case errors.Is(err, ErrCRM):
		return CodeCRMError
	case errors.Is(err, ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return CodeNetwork
	case errors.Is(err, ErrInvalidResponse):
		return CodeInvalidResponse
	case errors.Is(err, ErrHTTP):
		return CodeHTTP
	default:
		return CodeInternal
	}
}

// UserMessage returns the default Russian message for a code. Messages are
// client-safe: no URLs, status codes or internal identifiers.
func UserMessage(code string) string {
	switch code {
	case CodeValidation:
		return "Некорректные параметры запроса"
	case CodeNotFound:
		return "Запись не найдена"
	case CodeConflict:
		return "Это время уже занято, выберите другой слот"
	case CodeUnauthorized:
		return "Нет доступа к сервису записи"
	case CodeRateLimited:
		return "Слишком много запросов, попробуйте чуть позже"
	case CodeCRMUnavailable:
		return "Сервис записи временно недоступен, попробуйте позже"
	case CodeCRMBadResponse:
		return "Сервис записи вернул неожиданный ответ"
	case CodeCRMError:
		return "Сервис записи отклонил запрос"
	case CodeNetwork:
		return "Не удалось связаться с сервисом записи"
	case CodeInvalidResponse:
		return "Не удалось разобрать ответ сервиса записи"
	case CodeHTTP:
		return "Сервис записи вернул ошибку"
	default:
		return "Внутренняя ошибка, попробуйте позже"
	}
}
