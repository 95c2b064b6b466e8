package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Workflows (шаблоны)
	mux.Handle("GET /api/v1/workflows", chain(http.HandlerFunc(h.ListWorkflows)))
	mux.Handle("POST /api/v1/workflows", chain(http.HandlerFunc(h.CreateWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}", chain(http.HandlerFunc(h.GetWorkflow)))
	mux.Handle("PUT /api/v1/workflows/{id}", chain(http.HandlerFunc(h.UpdateWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}/forms", chain(http.HandlerFunc(h.ListWorkflowForms)))
	mux.Handle("POST /api/v1/workflows/{id}/forms", chain(http.HandlerFunc(h.AddWorkflowForm)))

	// Workflow runs
	mux.Handle("GET /api/v1/workflow-runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("POST /api/v1/workflow-runs", chain(http.HandlerFunc(h.CreateRun)))
	mux.Handle("GET /api/v1/workflow-runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	mux.Handle("POST /api/v1/workflow-runs/{id}/lock", chain(http.HandlerFunc(h.LockRun)))
	mux.Handle("POST /api/v1/workflow-runs/{id}/cancel", chain(http.HandlerFunc(h.CancelRun)))

	// Workflow items
	mux.Handle("POST /api/v1/workflow-items/{id}/assign", chain(http.HandlerFunc(h.AssignItem)))
	mux.Handle("POST /api/v1/workflow-items/{id}/start", chain(http.HandlerFunc(h.StartItem)))
	mux.Handle("POST /api/v1/workflow-items/{id}/skip", chain(http.HandlerFunc(h.SkipItem)))
	mux.Handle("POST /api/v1/workflow-items/add", chain(http.HandlerFunc(h.AddItem)))
	mux.Handle("POST /api/v1/workflow-items/mark-submitted", chain(http.HandlerFunc(h.MarkItemSubmitted)))
}
