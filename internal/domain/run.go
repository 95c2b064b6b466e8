package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowRun — экземпляр выполнения workflow для конкретного субъекта.
//
// Run создаётся атомарно вместе с набором items: по одному
// на каждый слот шаблона. Агрегатные счётчики RequiredTotal и
// RequiredDone выводятся из состояний items и никогда не
// правятся вручную.
type WorkflowRun struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// WorkflowID — ссылка на шаблон.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// DisplayName — имя субъекта (клиент, проект, кейс).
	DisplayName string `json:"display_name"`

	// Status — текущий агрегатный статус.
	Status RunStatus `json:"status"`

	// LockedAt — время административной блокировки.
	// Блокировка запрещает assign и addRepeat, но не мешает
	// закрывать уже существующие items.
	LockedAt *time.Time `json:"locked_at,omitempty"`

	// LockedBy — кто заблокировал run.
	LockedBy *uuid.UUID `json:"locked_by,omitempty"`

	// CancelledAt — время отмены.
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	// CancelledReason — причина отмены (обязательна).
	CancelledReason string `json:"cancelled_reason,omitempty"`

	// RequiredTotal — количество обязательных слотов шаблона.
	RequiredTotal int `json:"required_total"`

	// RequiredDone — количество обязательных слотов, закрытых
	// хотя бы одним терминальным item. Повторные items одного
	// слота не считаются дважды.
	RequiredDone int `json:"required_done"`

	// Version — счётчик версий для compare-and-set при записи
	// агрегата. Несовпадение версии означает потерянное
	// обновление: переход нужно повторить целиком.
	Version int `json:"-"`

	// CreatedBy — актор, создавший run.
	CreatedBy uuid.UUID `json:"created_by"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения агрегата.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCancelled возвращает true, если run отменён.
func (r *WorkflowRun) IsCancelled() bool {
	return r.Status == RunStatusCancelled
}

// IsCompleted возвращает true, если run завершён.
func (r *WorkflowRun) IsCompleted() bool {
	return r.Status == RunStatusCompleted
}

// IsLocked возвращает true, если run административно заблокирован.
func (r *WorkflowRun) IsLocked() bool {
	return r.LockedAt != nil
}

// MarkLocked блокирует run. Повторная блокировка — no-op.
func (r *WorkflowRun) MarkLocked(by uuid.UUID) {
	if r.LockedAt != nil {
		return
	}
	now := time.Now().UTC()
	r.LockedAt = &now
	r.LockedBy = &by
}

// MarkCancelled отменяет run с указанием причины. Необратимо.
func (r *WorkflowRun) MarkCancelled(reason string) {
	now := time.Now().UTC()
	r.Status = RunStatusCancelled
	r.CancelledAt = &now
	r.CancelledReason = reason
}
