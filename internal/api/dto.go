package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Formflow/internal/domain"
	"github.com/shaiso/Formflow/internal/lifecycle"
)

// Workflow DTOs

// CreateWorkflowRequest — запрос на создание workflow.
type CreateWorkflowRequest struct {
	Title       string `json:"title"`
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// UpdateWorkflowRequest — запрос на обновление метаданных workflow.
type UpdateWorkflowRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// WorkflowResponse — ответ с workflow.
type WorkflowResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Key         string    `json:"key"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(w domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:          w.ID,
		Title:       w.Title,
		Key:         w.Key,
		Description: w.Description,
		Status:      string(w.Status),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// AddFormRequest — запрос на добавление слота в шаблон.
type AddFormRequest struct {
	FormID        uuid.UUID `json:"form_id"`
	Required      bool      `json:"required"`
	AllowMultiple bool      `json:"allow_multiple"`
	SortOrder     int       `json:"sort_order"`
	DefaultName   string    `json:"default_name,omitempty"`
}

// WorkflowFormResponse — ответ со слотом шаблона.
type WorkflowFormResponse struct {
	ID            uuid.UUID `json:"id"`
	WorkflowID    uuid.UUID `json:"workflow_id"`
	FormID        uuid.UUID `json:"form_id"`
	Required      bool      `json:"required"`
	AllowMultiple bool      `json:"allow_multiple"`
	SortOrder     int       `json:"sort_order"`
	DefaultName   string    `json:"default_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// WorkflowFormFromDomain конвертирует domain.WorkflowForm в WorkflowFormResponse.
func WorkflowFormFromDomain(f domain.WorkflowForm) WorkflowFormResponse {
	return WorkflowFormResponse{
		ID:            f.ID,
		WorkflowID:    f.WorkflowID,
		FormID:        f.FormID,
		Required:      f.Required,
		AllowMultiple: f.AllowMultiple,
		SortOrder:     f.SortOrder,
		DefaultName:   f.DefaultName,
		CreatedAt:     f.CreatedAt,
	}
}

// Run DTOs

// CreateRunRequest — запрос на создание run.
type CreateRunRequest struct {
	WorkflowID  uuid.UUID `json:"workflow_id"`
	DisplayName string    `json:"display_name"`
}

// CancelRunRequest — запрос на отмену run.
type CancelRunRequest struct {
	Reason string `json:"reason"`
}

// AggregateResponse — агрегатный блок run. Включается в каждый
// мутирующий ответ, чтобы клиент обновил дашборд без второго запроса.
type AggregateResponse struct {
	Status        string `json:"status"`
	RequiredTotal int    `json:"required_total"`
	RequiredDone  int    `json:"required_done"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID              uuid.UUID  `json:"id"`
	WorkflowID      uuid.UUID  `json:"workflow_id"`
	DisplayName     string     `json:"display_name"`
	Status          string     `json:"status"`
	LockedAt        *time.Time `json:"locked_at,omitempty"`
	LockedBy        *uuid.UUID `json:"locked_by,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelledReason string     `json:"cancelled_reason,omitempty"`
	RequiredTotal   int        `json:"required_total"`
	RequiredDone    int        `json:"required_done"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RunFromDomain конвертирует domain.WorkflowRun в RunResponse.
func RunFromDomain(r domain.WorkflowRun) RunResponse {
	return RunResponse{
		ID:              r.ID,
		WorkflowID:      r.WorkflowID,
		DisplayName:     r.DisplayName,
		Status:          string(r.Status),
		LockedAt:        r.LockedAt,
		LockedBy:        r.LockedBy,
		CancelledAt:     r.CancelledAt,
		CancelledReason: r.CancelledReason,
		RequiredTotal:   r.RequiredTotal,
		RequiredDone:    r.RequiredDone,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// aggregateFromRun собирает агрегатный блок из run.
func aggregateFromRun(r domain.WorkflowRun) AggregateResponse {
	return AggregateResponse{
		Status:        string(r.Status),
		RequiredTotal: r.RequiredTotal,
		RequiredDone:  r.RequiredDone,
	}
}

// RunDetailResponse — дашборд-проекция run: сам run, items в порядке
// sequence_num с именами исполнителей и агрегатный блок.
type RunDetailResponse struct {
	Run      RunResponse       `json:"run"`
	Items    []ItemResponse    `json:"items"`
	Progress AggregateResponse `json:"progress"`
}

// Item DTOs

// AssignRequest — запрос на назначение исполнителя.
// null в assigned_user_id снимает назначение.
type AssignRequest struct {
	AssignedUserID *uuid.UUID `json:"assigned_user_id"`
}

// SkipRequest — запрос на пропуск item.
type SkipRequest struct {
	Reason string `json:"reason"`
}

// AddItemRequest — запрос на добавление повторного item.
type AddItemRequest struct {
	FromItemID     uuid.UUID  `json:"fromItemId"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id,omitempty"`
}

// MarkSubmittedRequest — callback от Form Service.
type MarkSubmittedRequest struct {
	WorkflowItemID uuid.UUID `json:"workflow_item_id"`
	WorkflowRunID  uuid.UUID `json:"workflow_run_id"`
}

// ItemResponse — ответ с item.
type ItemResponse struct {
	ID             uuid.UUID  `json:"id"`
	RunID          uuid.UUID  `json:"run_id"`
	WorkflowFormID uuid.UUID  `json:"workflow_form_id"`
	FormID         uuid.UUID  `json:"form_id"`
	Name           string     `json:"name,omitempty"`
	SequenceNum    int        `json:"sequence_num"`
	Required       bool       `json:"required"`
	AllowMultiple  bool       `json:"allow_multiple"`
	Status         string     `json:"status"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id,omitempty"`
	AssigneeName   string     `json:"assignee_name,omitempty"`
	SkippedReason  string     `json:"skipped_reason,omitempty"`
	FormSessionID  string     `json:"form_session_id,omitempty"`
	FormSessionURL string     `json:"form_session_url,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ItemFromDomain конвертирует domain.WorkflowItem в ItemResponse.
func ItemFromDomain(i domain.WorkflowItem) ItemResponse {
	return ItemResponse{
		ID:             i.ID,
		RunID:          i.RunID,
		WorkflowFormID: i.WorkflowFormID,
		FormID:         i.FormID,
		Name:           i.Name,
		SequenceNum:    i.SequenceNum,
		Required:       i.Required,
		AllowMultiple:  i.AllowMultiple,
		Status:         string(i.Status),
		AssignedUserID: i.AssignedUserID,
		SkippedReason:  i.SkippedReason,
		FormSessionID:  i.FormSessionID,
		FormSessionURL: i.FormSessionURL,
		StartedAt:      i.StartedAt,
		SubmittedAt:    i.SubmittedAt,
		CreatedAt:      i.CreatedAt,
	}
}

// MutationResponse — ответ мутирующих endpoints: затронутый item
// (если операция item-уровня), обновлённый run и агрегатный блок.
type MutationResponse struct {
	Item      *ItemResponse     `json:"item,omitempty"`
	Run       RunResponse       `json:"run"`
	Aggregate AggregateResponse `json:"aggregate"`
}

// MutationFromResult собирает MutationResponse из результата перехода.
func MutationFromResult(res *lifecycle.Result) MutationResponse {
	out := MutationResponse{
		Run:       RunFromDomain(*res.Run),
		Aggregate: aggregateFromRun(*res.Run),
	}
	if res.Item != nil {
		item := ItemFromDomain(*res.Item)
		out.Item = &item
	}
	return out
}
