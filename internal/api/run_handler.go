package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/Formflow/internal/domain"
	"github.com/shaiso/Formflow/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/workflow-runs?mine=&workflow_id=&status=&limit=&offset=
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{Limit: 50}

	if workflowIDStr := r.URL.Query().Get("workflow_id"); workflowIDStr != "" {
		workflowID, err := uuid.Parse(workflowIDStr)
		if err != nil {
			BadRequest(w, "invalid workflow_id")
			return
		}
		filter.WorkflowID = &workflowID
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = domain.RunStatus(status)
	}

	if r.URL.Query().Get("mine") == "true" {
		actor, ok := actorID(r)
		if !ok {
			BadRequest(w, "mine filter requires X-Actor-Id header")
			return
		}
		filter.CreatedBy = &actor
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	runs, err := h.runRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// CreateRun создаёт run по активному шаблону.
// POST /api/v1/workflow-runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		BadRequest(w, "X-Actor-Id header is required")
		return
	}

	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.WorkflowID == uuid.Nil {
		BadRequest(w, "workflow_id is required")
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		BadRequest(w, "display_name is required")
		return
	}

	run, items, err := h.lifecycle.CreateRun(r.Context(), req.WorkflowID, req.DisplayName, actor)
	if HandleTransitionError(w, h.logger, err, nil) {
		return
	}

	itemResponses := make([]ItemResponse, len(items))
	for i, item := range items {
		itemResponses[i] = ItemFromDomain(item)
	}

	Created(w, RunDetailResponse{
		Run:      RunFromDomain(*run),
		Items:    itemResponses,
		Progress: aggregateFromRun(*run),
	})
}

// GetRun возвращает дашборд-проекцию run: run, items в порядке
// sequence_num, имена исполнителей и агрегатный блок.
// GET /api/v1/workflow-runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	items, err := h.itemRepo.ListByRunID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	names := h.lookupAssignees(r.Context(), items)

	itemResponses := make([]ItemResponse, len(items))
	for i, item := range items {
		itemResponses[i] = ItemFromDomain(item)
		if item.AssignedUserID != nil {
			itemResponses[i].AssigneeName = names[*item.AssignedUserID]
		}
	}

	Success(w, RunDetailResponse{
		Run:      RunFromDomain(*run),
		Items:    itemResponses,
		Progress: aggregateFromRun(*run),
	})
}

// LockRun блокирует run административно.
// POST /api/v1/workflow-runs/{id}/lock
func (h *Handler) LockRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		BadRequest(w, "X-Actor-Id header is required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	res, err := h.lifecycle.Lock(r.Context(), id, actor)
	if HandleTransitionError(w, h.logger, err, h.runStateFn(r.Context(), id)) {
		return
	}

	Success(w, MutationFromResult(res))
}

// CancelRun отменяет run. Причина обязательна, отмена терминальна.
// POST /api/v1/workflow-runs/{id}/cancel
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		BadRequest(w, "X-Actor-Id header is required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	var req CancelRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	res, err := h.lifecycle.Cancel(r.Context(), id, req.Reason, actor)
	if HandleTransitionError(w, h.logger, err, h.runStateFn(r.Context(), id)) {
		return
	}

	Success(w, MutationFromResult(res))
}

// lookupAssignees резолвит имена назначенных исполнителей.
// Best-effort: недоступность справочника деградирует до пустых имён.
func (h *Handler) lookupAssignees(ctx context.Context, items []domain.WorkflowItem) map[uuid.UUID]string {
	if h.directory == nil {
		return nil
	}

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, item := range items {
		if item.AssignedUserID == nil {
			continue
		}
		if _, ok := seen[*item.AssignedUserID]; ok {
			continue
		}
		seen[*item.AssignedUserID] = struct{}{}
		ids = append(ids, *item.AssignedUserID)
	}
	if len(ids) == 0 {
		return nil
	}

	names, err := h.directory.LookupNames(ctx, ids)
	if err != nil {
		h.logger.Warn("assignee name lookup failed", "error", err)
		return nil
	}
	return names
}

// runStateFn отложенно перечитывает статус run для конфликтного
// ответа.
func (h *Handler) runStateFn(ctx context.Context, runID uuid.UUID) func() *ErrorState {
	return func() *ErrorState {
		run, err := h.runRepo.GetByID(ctx, runID)
		if err != nil {
			return nil
		}
		return &ErrorState{RunStatus: string(run.Status)}
	}
}
