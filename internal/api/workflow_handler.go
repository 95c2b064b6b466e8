package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Formflow/internal/domain"
)

// ListWorkflows возвращает список workflows.
// GET /api/v1/workflows
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.workflowRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowResponse, len(workflows))
	for i, wf := range workflows {
		result[i] = WorkflowFromDomain(wf)
	}

	List(w, result, len(result))
}

// CreateWorkflow создаёт новый workflow.
// POST /api/v1/workflows
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		BadRequest(w, "title is required")
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		BadRequest(w, "key is required")
		return
	}

	status := domain.WorkflowStatusActive
	if req.Status != "" {
		status = domain.WorkflowStatus(req.Status)
		if status != domain.WorkflowStatusActive && status != domain.WorkflowStatusInactive {
			BadRequest(w, "invalid status")
			return
		}
	}

	workflow := newWorkflow(req, status)

	if err := h.workflowRepo.Create(r.Context(), workflow); HandleRepoError(w, h.logger, err, "") {
		return
	}

	Created(w, WorkflowFromDomain(*workflow))
}

// GetWorkflow возвращает workflow по ID.
// GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	workflow, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*workflow))
}

// UpdateWorkflow обновляет метаданные workflow.
// Правки шаблона не трогают существующие runs (снапшот-семантика).
// PUT /api/v1/workflows/{id}
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req UpdateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	workflow, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			BadRequest(w, "title cannot be empty")
			return
		}
		workflow.Title = *req.Title
	}
	if req.Description != nil {
		workflow.Description = *req.Description
	}
	if req.Status != nil {
		status := domain.WorkflowStatus(*req.Status)
		if status != domain.WorkflowStatusActive && status != domain.WorkflowStatusInactive {
			BadRequest(w, "invalid status")
			return
		}
		workflow.Status = status
	}

	if err := h.workflowRepo.UpdateMeta(r.Context(), workflow); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*workflow))
}

// ListWorkflowForms возвращает слоты шаблона в порядке sort_order.
// GET /api/v1/workflows/{id}/forms
func (h *Handler) ListWorkflowForms(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	// Проверяем, что workflow существует
	_, err = h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	forms, err := h.workflowRepo.ListForms(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowFormResponse, len(forms))
	for i, f := range forms {
		result[i] = WorkflowFormFromDomain(f)
	}

	List(w, result, len(result))
}

// AddWorkflowForm добавляет слот в шаблон.
// POST /api/v1/workflows/{id}/forms
func (h *Handler) AddWorkflowForm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req AddFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.FormID == uuid.Nil {
		BadRequest(w, "form_id is required")
		return
	}

	_, err = h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	form := newWorkflowForm(id, req)

	if err := h.workflowRepo.AddForm(r.Context(), form); HandleRepoError(w, h.logger, err, "") {
		return
	}

	Created(w, WorkflowFormFromDomain(*form))
}

// newWorkflow собирает workflow из провалидированного запроса.
// Таймстемпы выставляются здесь: репозиторий вставляет их как есть,
// и нулевые значения ломали бы сортировку списка по created_at.
func newWorkflow(req CreateWorkflowRequest, status domain.WorkflowStatus) *domain.Workflow {
	now := time.Now().UTC()
	return &domain.Workflow{
		ID:          uuid.New(),
		Title:       req.Title,
		Key:         req.Key,
		Description: req.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// newWorkflowForm собирает слот формы из провалидированного запроса.
func newWorkflowForm(workflowID uuid.UUID, req AddFormRequest) *domain.WorkflowForm {
	return &domain.WorkflowForm{
		ID:            uuid.New(),
		WorkflowID:    workflowID,
		FormID:        req.FormID,
		Required:      req.Required,
		AllowMultiple: req.AllowMultiple,
		SortOrder:     req.SortOrder,
		DefaultName:   req.DefaultName,
		CreatedAt:     time.Now().UTC(),
	}
}
