package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — запись уже существует (конфликт уникальности).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState — операция невозможна в текущем состоянии.
	ErrInvalidState = errors.New("invalid state")

	// ErrVersionConflict — compare-and-set по version не прошёл:
	// между чтением и записью агрегат изменила другая транзакция.
	// Вызывающий обязан повторить переход целиком, а не перезаписать
	// дельту: конкурентный переход мог изменить набор закрытых слотов.
	ErrVersionConflict = errors.New("version conflict")
)
