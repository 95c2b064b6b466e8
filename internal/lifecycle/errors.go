package lifecycle

import "errors"

// Ошибки сервиса переходов.
var (
	// ErrContention — переход не удалось применить за отведённое
	// число попыток из-за конкуренции за run. Ошибка retryable
	// с точки зрения клиента (HTTP 409).
	ErrContention = errors.New("run is busy, transition could not be applied")

	// ErrRunMismatch — item не принадлежит указанному run
	// (защита callback от Form Service с перепутанными ID).
	ErrRunMismatch = errors.New("item does not belong to the given run")
)
