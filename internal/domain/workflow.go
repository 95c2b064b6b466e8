package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workflow — шаблон рабочего процесса.
//
// Workflow определяет, из каких форм состоит процесс
// (онбординг клиента, открытие проекта и т.п.).
// Каждый запуск (WorkflowRun) снимает снапшот слотов шаблона
// на момент создания: последующие правки шаблона
// на существующие runs не влияют.
type Workflow struct {
	// ID — уникальный идентификатор workflow.
	ID uuid.UUID `json:"id"`

	// Title — человекочитаемое название.
	Title string `json:"title"`

	// Key — уникальный машинный ключ (например, "client-onboarding").
	Key string `json:"key"`

	// Description — описание назначения.
	Description string `json:"description,omitempty"`

	// Status — активность шаблона. Inactive шаблоны не инстанцируются.
	Status WorkflowStatus `json:"status"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения метаданных.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive возвращает true, если из шаблона можно создавать runs.
func (w *Workflow) IsActive() bool {
	return w.Status == WorkflowStatusActive
}

// WorkflowForm — слот формы внутри шаблона.
//
// Слот описывает одну форму, которую run должен заполнить:
// обязательность, повторяемость и позицию в списке.
type WorkflowForm struct {
	// ID — уникальный идентификатор слота.
	ID uuid.UUID `json:"id"`

	// WorkflowID — ссылка на родительский workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// FormID — идентификатор формы во внешнем Form Service.
	// Движок содержимое формы не знает и не валидирует.
	FormID uuid.UUID `json:"form_id"`

	// Required — обязателен ли слот для завершения run.
	Required bool `json:"required"`

	// AllowMultiple — можно ли создавать повторные items (addRepeat).
	AllowMultiple bool `json:"allow_multiple"`

	// SortOrder — позиция слота в списке шаблона.
	SortOrder int `json:"sort_order"`

	// DefaultName — имя item по умолчанию (например, "Паспорт директора").
	DefaultName string `json:"default_name,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}
