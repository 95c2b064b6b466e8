package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowItem — один экземпляр слота внутри run.
//
// Item создаётся фабрикой run (по одному на слот шаблона)
// или операцией addRepeat для повторяемых слотов.
// Флаги Required и AllowMultiple копируются из слота в момент
// создания и не меняются, даже если шаблон позже отредактируют
// (снапшот-семантика run).
type WorkflowItem struct {
	// ID — уникальный идентификатор item.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на родительский run.
	RunID uuid.UUID `json:"run_id"`

	// WorkflowFormID — слот шаблона, из которого создан item.
	// Items одного слота вместе закрывают один required-счётчик.
	WorkflowFormID uuid.UUID `json:"workflow_form_id"`

	// FormID — форма во внешнем Form Service.
	FormID uuid.UUID `json:"form_id"`

	// Name — отображаемое имя item (DefaultName слота).
	Name string `json:"name,omitempty"`

	// SequenceNum — порядковый номер item внутри run.
	SequenceNum int `json:"sequence_num"`

	// Required — копия WorkflowForm.Required на момент создания.
	Required bool `json:"required"`

	// AllowMultiple — копия WorkflowForm.AllowMultiple на момент создания.
	AllowMultiple bool `json:"allow_multiple"`

	// Status — текущий статус item.
	Status ItemStatus `json:"status"`

	// AssignedUserID — назначенный исполнитель (nil = не назначен).
	AssignedUserID *uuid.UUID `json:"assigned_user_id,omitempty"`

	// SkippedReason — причина пропуска (обязательна при skip).
	SkippedReason string `json:"skipped_reason,omitempty"`

	// FormSessionID — идентификатор сессии заполнения, выданной
	// Form Service при первом start. Повторный start того же
	// item возвращает эту же сессию.
	FormSessionID string `json:"form_session_id,omitempty"`

	// FormSessionURL — ссылка на сессию заполнения.
	FormSessionURL string `json:"form_session_url,omitempty"`

	// StartedAt — время перехода в in_progress.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// SubmittedAt — время отправки формы.
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// IsFinished возвращает true, если item в терминальном статусе.
func (i *WorkflowItem) IsFinished() bool {
	return i.Status.IsTerminal()
}

// MarkInProgress переводит item в in_progress и сохраняет сессию.
func (i *WorkflowItem) MarkInProgress(sessionID, sessionURL string) {
	now := time.Now().UTC()
	i.Status = ItemStatusInProgress
	i.StartedAt = &now
	i.FormSessionID = sessionID
	i.FormSessionURL = sessionURL
}

// MarkSubmitted переводит item в submitted.
func (i *WorkflowItem) MarkSubmitted() {
	now := time.Now().UTC()
	i.Status = ItemStatusSubmitted
	i.SubmittedAt = &now
}

// MarkSkipped переводит item в skipped с причиной.
func (i *WorkflowItem) MarkSkipped(reason string) {
	i.Status = ItemStatusSkipped
	i.SkippedReason = reason
}
