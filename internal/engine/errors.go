package engine

import "errors"

// Ошибки отклонённых переходов.
//
// Разделение по смыслу: Err*Required и ErrNotRepeatable — ошибки
// запроса (BadRequest), остальные — конфликт с текущим состоянием
// run/item (Conflict). Маппинг на HTTP-коды живёт в пакете api.
var (
	// ErrRunCancelled — run отменён, переходы не принимаются.
	ErrRunCancelled = errors.New("run is cancelled")

	// ErrRunLocked — run заблокирован: assign и addRepeat запрещены.
	ErrRunLocked = errors.New("run is locked")

	// ErrItemTerminal — item уже в терминальном статусе.
	ErrItemTerminal = errors.New("item is in terminal status")

	// ErrItemAlreadySubmitted — item уже отправлен, skip невозможен.
	ErrItemAlreadySubmitted = errors.New("item is already submitted")

	// ErrReasonRequired — операция требует непустую причину.
	ErrReasonRequired = errors.New("reason is required")

	// ErrNotRepeatable — слот не допускает повторных items.
	ErrNotRepeatable = errors.New("slot does not allow multiple items")
)
