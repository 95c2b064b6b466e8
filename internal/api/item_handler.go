package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// AssignItem назначает или снимает исполнителя item.
// POST /api/v1/workflow-items/{id}/assign
func (h *Handler) AssignItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		BadRequest(w, "X-Actor-Id header is required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid item id")
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	res, err := h.lifecycle.Assign(r.Context(), id, req.AssignedUserID, actor)
	if HandleTransitionError(w, h.logger, err, h.itemStateFn(r.Context(), id)) {
		return
	}

	Success(w, MutationFromResult(res))
}

// StartItem начинает работу по item и возвращает сессию заполнения.
// Повторный start на in_progress item возвращает сохранённую сессию.
// POST /api/v1/workflow-items/{id}/start
func (h *Handler) StartItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		BadRequest(w, "X-Actor-Id header is required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid item id")
		return
	}

	res, err := h.lifecycle.Start(r.Context(), id, actor)
	if HandleTransitionError(w, h.logger, err, h.itemStateFn(r.Context(), id)) {
		return
	}

	Success(w, MutationFromResult(res))
}

// SkipItem пропускает item с обязательной причиной.
// POST /api/v1/workflow-items/{id}/skip
func (h *Handler) SkipItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		BadRequest(w, "X-Actor-Id header is required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid item id")
		return
	}

	var req SkipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	res, err := h.lifecycle.Skip(r.Context(), id, req.Reason, actor)
	if HandleTransitionError(w, h.logger, err, h.itemStateFn(r.Context(), id)) {
		return
	}

	Success(w, MutationFromResult(res))
}

// AddItem добавляет повторный item для allow_multiple слота.
// POST /api/v1/workflow-items/add
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		BadRequest(w, "X-Actor-Id header is required")
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.FromItemID == uuid.Nil {
		BadRequest(w, "fromItemId is required")
		return
	}

	res, err := h.lifecycle.AddRepeat(r.Context(), req.FromItemID, req.AssignedUserID, actor)
	if HandleTransitionError(w, h.logger, err, h.itemStateFn(r.Context(), req.FromItemID)) {
		return
	}

	Created(w, MutationFromResult(res))
}

// MarkItemSubmitted — callback от Form Service об отправке формы.
// Идемпотентен: повтор на submitted item — no-op. Гонка с cancel —
// Conflict, Form Service обязан не ретраить 409.
// POST /api/v1/workflow-items/mark-submitted
func (h *Handler) MarkItemSubmitted(w http.ResponseWriter, r *http.Request) {
	var req MarkSubmittedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.WorkflowItemID == uuid.Nil || req.WorkflowRunID == uuid.Nil {
		BadRequest(w, "workflow_item_id and workflow_run_id are required")
		return
	}

	res, err := h.lifecycle.MarkSubmitted(r.Context(), req.WorkflowItemID, req.WorkflowRunID)
	if HandleTransitionError(w, h.logger, err, h.itemStateFn(r.Context(), req.WorkflowItemID)) {
		return
	}

	Success(w, MutationFromResult(res))
}

// itemStateFn отложенно перечитывает статусы item и его run для
// конфликтного ответа.
func (h *Handler) itemStateFn(ctx context.Context, itemID uuid.UUID) func() *ErrorState {
	return func() *ErrorState {
		item, err := h.itemRepo.GetByID(ctx, itemID)
		if err != nil {
			return nil
		}
		state := &ErrorState{ItemStatus: string(item.Status)}
		if run, err := h.runRepo.GetByID(ctx, item.RunID); err == nil {
			state.RunStatus = string(run.Status)
		}
		return state
	}
}
