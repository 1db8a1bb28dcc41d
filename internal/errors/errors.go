// errors стандартизирует ответы об ошибках HTTP-слоя comments-service.
// На вход — ошибка сервисного слоя, на выход:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Два fail-open случая движка (битый курсор, нераспознанный ключ сортировки)
// сюда не попадают вовсе — они не являются ошибками.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atlasguides/guide-admin/comments-service/internal/service"
)

// Нестандартный код, часто используемый для «клиент закрыл соединение».
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и
// унифицированный ответ.
//
// Маппинг:
//   - ErrInvalidArgument (битый id статьи/родителя)      -> 400
//   - ErrNotFound                                        -> 404
//   - ErrUnavailable (сторадж недоступен, без ретраев)   -> 503
//   - context.DeadlineExceeded                           -> 504
//   - context.Canceled (клиент закрыл соединение)        -> 499
//   - прочее (включая err == nil — программная ошибка)   -> 500/internal
func ToHTTP(err error) (int, ErrorResponse) {
	resp := func(code, msg string) ErrorResponse {
		return ErrorResponse{Error: APIError{Code: code, Message: msg}}
	}

	switch {
	case err == nil:
		return http.StatusInternalServerError, resp("internal", "internal error")
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, resp("invalid_argument", "invalid argument")
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, resp("not_found", "not found")
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, resp("unavailable", "service unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, resp("deadline_exceeded", "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, resp("canceled", "canceled")
	default:
		return http.StatusInternalServerError, resp("internal", "internal error")
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id, чтобы фронт мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
