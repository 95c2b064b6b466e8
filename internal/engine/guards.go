package engine

import (
	"strings"

	"github.com/shaiso/Formflow/internal/domain"
)

// CanAssign проверяет допустимость назначения исполнителя.
//
// Назначение запрещено на отменённом и заблокированном run.
// Completed run (не заблокированный) назначение принимает.
func CanAssign(run *domain.WorkflowRun) error {
	if run.IsCancelled() {
		return ErrRunCancelled
	}
	if run.IsLocked() {
		return ErrRunLocked
	}
	return nil
}

// CanStart проверяет допустимость старта item.
//
// Start на in_progress item допустим: это идемпотентный рестарт,
// возвращающий ту же сессию. Блокировка run старту не мешает —
// существующая работа должна оставаться закрываемой.
func CanStart(run *domain.WorkflowRun, item *domain.WorkflowItem) error {
	if run.IsCancelled() {
		return ErrRunCancelled
	}
	if item.IsFinished() {
		return ErrItemTerminal
	}
	return nil
}

// CanSkip проверяет допустимость пропуска item.
//
// Повторный skip уже пропущенного item допустим (перезаписывает
// причину): предусловие запрещает только submitted.
func CanSkip(run *domain.WorkflowRun, item *domain.WorkflowItem, reason string) error {
	if run.IsCancelled() {
		return ErrRunCancelled
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	if item.Status == domain.ItemStatusSubmitted {
		return ErrItemAlreadySubmitted
	}
	return nil
}

// CanMarkSubmitted проверяет допустимость отметки об отправке формы.
//
// Для уже submitted item возвращает nil: callback от Form Service
// обязан быть идемпотентным, повторный вызов — no-op на стороне
// вызывающего. Отправка по пропущенному item — конфликт:
// терминальное состояние item не перезаписывается.
func CanMarkSubmitted(run *domain.WorkflowRun, item *domain.WorkflowItem) error {
	if run.IsCancelled() {
		return ErrRunCancelled
	}
	if item.Status == domain.ItemStatusSkipped {
		return ErrItemTerminal
	}
	return nil
}

// CanAddRepeat проверяет допустимость создания повторного item.
//
// Completed run (не заблокированный) addRepeat принимает:
// закрытый required-слот остаётся закрытым, на завершённость
// новый item не влияет.
func CanAddRepeat(run *domain.WorkflowRun, from *domain.WorkflowItem) error {
	if run.IsCancelled() {
		return ErrRunCancelled
	}
	if run.IsLocked() {
		return ErrRunLocked
	}
	if !from.AllowMultiple {
		return ErrNotRepeatable
	}
	return nil
}

// CanLock проверяет допустимость блокировки run.
// Повторная блокировка — no-op (решает вызывающий).
func CanLock(run *domain.WorkflowRun) error {
	if run.IsCancelled() {
		return ErrRunCancelled
	}
	return nil
}

// CanCancel проверяет допустимость отмены run.
//
// Отмена легальна из любого неотменённого состояния, включая
// completed (административное решение). Повторная отмена — конфликт.
func CanCancel(run *domain.WorkflowRun, reason string) error {
	if run.IsCancelled() {
		return ErrRunCancelled
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}
