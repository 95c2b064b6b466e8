package engine

import (
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Formflow/internal/domain"
)

// makeItem создаёт item для тестов derivation.
func makeItem(slotID uuid.UUID, required bool, status domain.ItemStatus) domain.WorkflowItem {
	return domain.WorkflowItem{
		ID:             uuid.New(),
		WorkflowFormID: slotID,
		Required:       required,
		Status:         status,
	}
}

func TestDeriveProgress_Empty(t *testing.T) {
	p := DeriveProgress(nil)

	if p.RequiredTotal != 0 {
		t.Errorf("expected RequiredTotal 0, got %d", p.RequiredTotal)
	}
	if p.RequiredDone != 0 {
		t.Errorf("expected RequiredDone 0, got %d", p.RequiredDone)
	}
}

func TestDeriveProgress_OptionalSlotsIgnored(t *testing.T) {
	slot := uuid.New()
	items := []domain.WorkflowItem{
		makeItem(slot, false, domain.ItemStatusSubmitted),
	}

	p := DeriveProgress(items)

	if p.RequiredTotal != 0 {
		t.Errorf("optional slot must not count, got RequiredTotal %d", p.RequiredTotal)
	}
}

func TestDeriveProgress_SlotSatisfiedByOneTerminalItem(t *testing.T) {
	slotA := uuid.New()
	slotB := uuid.New()
	items := []domain.WorkflowItem{
		makeItem(slotA, true, domain.ItemStatusSubmitted),
		makeItem(slotB, true, domain.ItemStatusInProgress),
	}

	p := DeriveProgress(items)

	if p.RequiredTotal != 2 {
		t.Errorf("expected RequiredTotal 2, got %d", p.RequiredTotal)
	}
	if p.RequiredDone != 1 {
		t.Errorf("expected RequiredDone 1, got %d", p.RequiredDone)
	}
}

func TestDeriveProgress_SkippedCountsAsTerminal(t *testing.T) {
	slot := uuid.New()
	items := []domain.WorkflowItem{
		makeItem(slot, true, domain.ItemStatusSkipped),
	}

	p := DeriveProgress(items)

	if p.RequiredDone != 1 {
		t.Errorf("skipped item must satisfy its slot, got RequiredDone %d", p.RequiredDone)
	}
}

func TestDeriveProgress_RepeatsDoNotDoubleCount(t *testing.T) {
	slot := uuid.New()
	items := []domain.WorkflowItem{
		makeItem(slot, true, domain.ItemStatusSubmitted),
		makeItem(slot, true, domain.ItemStatusSubmitted),
		makeItem(slot, true, domain.ItemStatusNotStarted),
	}

	p := DeriveProgress(items)

	if p.RequiredTotal != 1 {
		t.Errorf("three items of one slot are one slot, got RequiredTotal %d", p.RequiredTotal)
	}
	if p.RequiredDone != 1 {
		t.Errorf("expected RequiredDone 1, got %d", p.RequiredDone)
	}
}

func TestDeriveRunStatus_CancelledSticks(t *testing.T) {
	slot := uuid.New()
	items := []domain.WorkflowItem{
		makeItem(slot, true, domain.ItemStatusSubmitted),
	}
	p := DeriveProgress(items)

	status := DeriveRunStatus(domain.RunStatusCancelled, items, p)

	if status != domain.RunStatusCancelled {
		t.Errorf("cancelled must never be recomputed, got %s", status)
	}
}

func TestDeriveRunStatus_Table(t *testing.T) {
	slotA := uuid.New()
	slotB := uuid.New()

	tests := []struct {
		name     string
		items    []domain.WorkflowItem
		expected domain.RunStatus
	}{
		{
			name: "all not_started",
			items: []domain.WorkflowItem{
				makeItem(slotA, true, domain.ItemStatusNotStarted),
				makeItem(slotB, false, domain.ItemStatusNotStarted),
			},
			expected: domain.RunStatusNotStarted,
		},
		{
			name: "one item in progress",
			items: []domain.WorkflowItem{
				makeItem(slotA, true, domain.ItemStatusInProgress),
				makeItem(slotB, false, domain.ItemStatusNotStarted),
			},
			expected: domain.RunStatusInProgress,
		},
		{
			name: "all required terminal",
			items: []domain.WorkflowItem{
				makeItem(slotA, true, domain.ItemStatusSubmitted),
				makeItem(slotB, true, domain.ItemStatusSkipped),
			},
			expected: domain.RunStatusCompleted,
		},
		{
			name: "optional item does not block completion",
			items: []domain.WorkflowItem{
				makeItem(slotA, true, domain.ItemStatusSubmitted),
				makeItem(slotB, false, domain.ItemStatusNotStarted),
			},
			expected: domain.RunStatusCompleted,
		},
		{
			name: "no required slots never completes",
			items: []domain.WorkflowItem{
				makeItem(slotA, false, domain.ItemStatusSubmitted),
			},
			expected: domain.RunStatusInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DeriveProgress(tt.items)
			status := DeriveRunStatus(domain.RunStatusInProgress, tt.items, p)
			if status != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, status)
			}
		})
	}
}

func TestRecompute_RequiredPlusOptionalScenario(t *testing.T) {
	// Шаблон: 1 обязательный + 1 опциональный слот.
	required := uuid.New()
	optional := uuid.New()
	items := []domain.WorkflowItem{
		makeItem(required, true, domain.ItemStatusNotStarted),
		makeItem(optional, false, domain.ItemStatusNotStarted),
	}
	run := &domain.WorkflowRun{Status: domain.RunStatusNotStarted}

	Recompute(run, items)
	if run.RequiredTotal != 1 || run.RequiredDone != 0 {
		t.Fatalf("expected 0/1, got %d/%d", run.RequiredDone, run.RequiredTotal)
	}
	if run.Status != domain.RunStatusNotStarted {
		t.Fatalf("expected not_started, got %s", run.Status)
	}

	// Старт обязательного item.
	items[0].MarkInProgress("sess-1", "http://forms/sess-1")
	Recompute(run, items)
	if run.Status != domain.RunStatusInProgress {
		t.Fatalf("expected in_progress, got %s", run.Status)
	}

	// Skip обязательного item закрывает run.
	items[0].MarkSkipped("N/A")
	Recompute(run, items)
	if run.RequiredDone != 1 {
		t.Errorf("expected RequiredDone 1, got %d", run.RequiredDone)
	}
	if run.Status != domain.RunStatusCompleted {
		t.Errorf("expected completed, got %s", run.Status)
	}
	if items[1].Status != domain.ItemStatusNotStarted {
		t.Errorf("optional item must stay untouched, got %s", items[1].Status)
	}
}

func TestRecompute_TwoRequiredSlots(t *testing.T) {
	slotA := uuid.New()
	slotB := uuid.New()
	items := []domain.WorkflowItem{
		makeItem(slotA, true, domain.ItemStatusNotStarted),
		makeItem(slotB, true, domain.ItemStatusNotStarted),
	}
	run := &domain.WorkflowRun{Status: domain.RunStatusNotStarted}

	items[0].MarkSkipped("duplicate form")
	Recompute(run, items)
	if run.Status != domain.RunStatusInProgress || run.RequiredDone != 1 {
		t.Fatalf("expected in_progress 1/2, got %s %d/%d", run.Status, run.RequiredDone, run.RequiredTotal)
	}

	items[1].MarkSubmitted()
	Recompute(run, items)
	if run.Status != domain.RunStatusCompleted || run.RequiredDone != 2 {
		t.Fatalf("expected completed 2/2, got %s %d/%d", run.Status, run.RequiredDone, run.RequiredTotal)
	}
}

func TestRecompute_IdempotentForSameItems(t *testing.T) {
	slot := uuid.New()
	items := []domain.WorkflowItem{
		makeItem(slot, true, domain.ItemStatusSubmitted),
	}
	run := &domain.WorkflowRun{Status: domain.RunStatusInProgress}

	Recompute(run, items)
	first := *run
	Recompute(run, items)

	if run.Status != first.Status || run.RequiredDone != first.RequiredDone {
		t.Error("recompute must be idempotent for unchanged items")
	}
}

func TestRecompute_RepeatOnCompletedRunStaysCompleted(t *testing.T) {
	slot := uuid.New()
	items := []domain.WorkflowItem{
		makeItem(slot, true, domain.ItemStatusSubmitted),
		makeItem(slot, true, domain.ItemStatusNotStarted),
	}
	run := &domain.WorkflowRun{Status: domain.RunStatusCompleted}

	Recompute(run, items)

	if run.Status != domain.RunStatusCompleted {
		t.Errorf("status = %q, expected completed: satisfied slot stays satisfied", run.Status)
	}
	if run.RequiredTotal != 1 || run.RequiredDone != 1 {
		t.Errorf("progress = %d/%d, expected 1/1", run.RequiredDone, run.RequiredTotal)
	}
}
