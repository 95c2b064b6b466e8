package api

import (
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Formflow/internal/domain"
)

func TestNewWorkflowSetsTimestamps(t *testing.T) {
	req := CreateWorkflowRequest{
		Title:       "Onboarding",
		Key:         "onboarding",
		Description: "hiring paperwork",
	}

	workflow := newWorkflow(req, domain.WorkflowStatusActive)

	if workflow.ID == uuid.Nil {
		t.Error("expected generated workflow ID")
	}
	if workflow.Title != req.Title || workflow.Key != req.Key {
		t.Errorf("workflow fields = %q/%q, expected %q/%q", workflow.Title, workflow.Key, req.Title, req.Key)
	}
	if workflow.Status != domain.WorkflowStatusActive {
		t.Errorf("status = %q, expected active", workflow.Status)
	}
	if workflow.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, list ordering by created_at would degenerate")
	}
	if !workflow.UpdatedAt.Equal(workflow.CreatedAt) {
		t.Errorf("UpdatedAt = %v, expected to equal CreatedAt %v", workflow.UpdatedAt, workflow.CreatedAt)
	}
}

func TestNewWorkflowFormSetsCreatedAt(t *testing.T) {
	workflowID := uuid.New()
	req := AddFormRequest{
		FormID:        uuid.New(),
		Required:      true,
		AllowMultiple: true,
		SortOrder:     3,
		DefaultName:   "NDA",
	}

	form := newWorkflowForm(workflowID, req)

	if form.ID == uuid.Nil {
		t.Error("expected generated form ID")
	}
	if form.WorkflowID != workflowID || form.FormID != req.FormID {
		t.Errorf("form linkage = %v/%v, expected %v/%v", form.WorkflowID, form.FormID, workflowID, req.FormID)
	}
	if !form.Required || !form.AllowMultiple || form.SortOrder != 3 || form.DefaultName != "NDA" {
		t.Errorf("slot fields not carried over: %+v", form)
	}
	if form.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}
