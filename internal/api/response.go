package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Formflow/internal/engine"
	"github.com/shaiso/Formflow/internal/lifecycle"
	"github.com/shaiso/Formflow/internal/repo"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest     ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeInvalidState   ErrorCode = "INVALID_STATE"
	ErrCodeInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrCodeMethodNotAllow ErrorCode = "METHOD_NOT_ALLOWED"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	State   *ErrorState `json:"state,omitempty"`
}

// ErrorState — текущие статусы run/item на момент отказа.
// Заполняется best-effort: если перечитать состояние не удалось,
// объект опускается, код и сообщение остаются.
type ErrorState struct {
	RunStatus  string `json:"run_status,omitempty"`
	ItemStatus string `json:"item_status,omitempty"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// ErrorWithState отправляет ответ с ошибкой и текущими статусами.
func ErrorWithState(w http.ResponseWriter, status int, code ErrorCode, message string, state *ErrorState) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			State:   state,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, ErrCodeConflict, message)
}

// InvalidState отправляет ошибку 422.
func InvalidState(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidState, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// MethodNotAllowed отправляет ошибку 405.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
}

// HandleRepoError преобразует ошибку репозитория в HTTP ответ.
func HandleRepoError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, repo.ErrNotFound) {
		NotFound(w, notFoundMsg)
		return true
	}

	if errors.Is(err, repo.ErrAlreadyExists) {
		Conflict(w, err.Error())
		return true
	}

	if errors.Is(err, repo.ErrInvalidState) {
		InvalidState(w, err.Error())
		return true
	}

	InternalError(w, logger, err)
	return true
}

// transitionStatus классифицирует ошибку перехода по HTTP-статусу.
// Нарушения формы запроса — 400, отказы guard-правил и проигранные
// гонки — 409, отсутствующие сущности — 404.
func transitionStatus(err error) (int, ErrorCode) {
	switch {
	case errors.Is(err, engine.ErrReasonRequired),
		errors.Is(err, engine.ErrNotRepeatable),
		errors.Is(err, lifecycle.ErrRunMismatch):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, engine.ErrRunCancelled),
		errors.Is(err, engine.ErrRunLocked),
		errors.Is(err, engine.ErrItemTerminal),
		errors.Is(err, engine.ErrItemAlreadySubmitted),
		errors.Is(err, lifecycle.ErrContention):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// HandleTransitionError преобразует ошибку lifecycle-сервиса в HTTP
// ответ. Для конфликтов вызывает stateFn, чтобы приложить текущие
// статусы; на успешном пути stateFn не вызывается, лишних чтений нет.
// Возвращает true, если ошибка обработана.
func HandleTransitionError(w http.ResponseWriter, logger *slog.Logger, err error, stateFn func() *ErrorState) bool {
	if err == nil {
		return false
	}

	status, code := transitionStatus(err)
	if status == http.StatusInternalServerError {
		InternalError(w, logger, err)
		return true
	}

	if status == http.StatusConflict {
		var state *ErrorState
		if stateFn != nil {
			state = stateFn()
		}
		ErrorWithState(w, status, code, err.Error(), state)
		return true
	}

	Error(w, status, code, err.Error())
	return true
}
