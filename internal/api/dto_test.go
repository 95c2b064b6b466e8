package api

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Formflow/internal/domain"
	"github.com/shaiso/Formflow/internal/lifecycle"
)

func TestMutationFromResult(t *testing.T) {
	run := &domain.WorkflowRun{
		ID:            uuid.New(),
		Status:        domain.RunStatusInProgress,
		RequiredTotal: 3,
		RequiredDone:  1,
	}
	item := &domain.WorkflowItem{
		ID:     uuid.New(),
		RunID:  run.ID,
		Status: domain.ItemStatusSubmitted,
	}

	out := MutationFromResult(&lifecycle.Result{Run: run, Item: item})

	if out.Run.ID != run.ID {
		t.Errorf("expected run ID %s, got %s", run.ID, out.Run.ID)
	}
	if out.Aggregate.Status != "in_progress" {
		t.Errorf("expected aggregate status in_progress, got %s", out.Aggregate.Status)
	}
	if out.Aggregate.RequiredTotal != 3 || out.Aggregate.RequiredDone != 1 {
		t.Errorf("expected aggregate 1/3, got %d/%d", out.Aggregate.RequiredDone, out.Aggregate.RequiredTotal)
	}
	if out.Item == nil || out.Item.Status != "submitted" {
		t.Errorf("expected submitted item in response, got %+v", out.Item)
	}
}

func TestMutationFromResultRunOnly(t *testing.T) {
	run := &domain.WorkflowRun{ID: uuid.New(), Status: domain.RunStatusCancelled}

	out := MutationFromResult(&lifecycle.Result{Run: run})

	if out.Item != nil {
		t.Errorf("expected no item for run-level operation, got %+v", out.Item)
	}
	if out.Run.Status != "cancelled" {
		t.Errorf("expected cancelled, got %s", out.Run.Status)
	}
}

func TestActorID(t *testing.T) {
	id := uuid.New()

	r := httptest.NewRequest("POST", "/api/v1/workflow-runs", nil)
	r.Header.Set("X-Actor-Id", id.String())

	got, ok := actorID(r)
	if !ok {
		t.Fatal("expected actor to be parsed")
	}
	if got != id {
		t.Errorf("expected %s, got %s", id, got)
	}

	r = httptest.NewRequest("POST", "/api/v1/workflow-runs", nil)
	if _, ok := actorID(r); ok {
		t.Error("missing header should not yield an actor")
	}

	r = httptest.NewRequest("POST", "/api/v1/workflow-runs", nil)
	r.Header.Set("X-Actor-Id", "not-a-uuid")
	if _, ok := actorID(r); ok {
		t.Error("malformed header should not yield an actor")
	}
}
