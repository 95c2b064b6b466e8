package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Formflow/internal/domain"
)

func activeRun() *domain.WorkflowRun {
	return &domain.WorkflowRun{ID: uuid.New(), Status: domain.RunStatusInProgress}
}

func cancelledRun() *domain.WorkflowRun {
	run := activeRun()
	run.MarkCancelled("duplicate")
	return run
}

func lockedRun() *domain.WorkflowRun {
	run := activeRun()
	run.MarkLocked(uuid.New())
	return run
}

func itemWithStatus(status domain.ItemStatus) *domain.WorkflowItem {
	return &domain.WorkflowItem{ID: uuid.New(), Status: status, AllowMultiple: true}
}

func TestCanAssign(t *testing.T) {
	if err := CanAssign(activeRun()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CanAssign(cancelledRun()); !errors.Is(err, ErrRunCancelled) {
		t.Errorf("expected ErrRunCancelled, got %v", err)
	}
	if err := CanAssign(lockedRun()); !errors.Is(err, ErrRunLocked) {
		t.Errorf("expected ErrRunLocked, got %v", err)
	}
}

func TestCanAssign_CompletedRunAllowed(t *testing.T) {
	// Регрессия зафиксированного решения: assign на completed run
	// разрешён, пока run не заблокирован и не отменён.
	run := activeRun()
	run.Status = domain.RunStatusCompleted

	if err := CanAssign(run); err != nil {
		t.Errorf("assign on completed run must be allowed, got %v", err)
	}
}

func TestCanStart(t *testing.T) {
	tests := []struct {
		name     string
		run      *domain.WorkflowRun
		item     *domain.WorkflowItem
		expected error
	}{
		{"not started item", activeRun(), itemWithStatus(domain.ItemStatusNotStarted), nil},
		{"in progress item is idempotent restart", activeRun(), itemWithStatus(domain.ItemStatusInProgress), nil},
		{"submitted item", activeRun(), itemWithStatus(domain.ItemStatusSubmitted), ErrItemTerminal},
		{"skipped item", activeRun(), itemWithStatus(domain.ItemStatusSkipped), ErrItemTerminal},
		{"cancelled run", cancelledRun(), itemWithStatus(domain.ItemStatusNotStarted), ErrRunCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanStart(tt.run, tt.item)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestCanStart_LockedRunAllowed(t *testing.T) {
	// Блокировка не мешает закрывать существующую работу.
	err := CanStart(lockedRun(), itemWithStatus(domain.ItemStatusNotStarted))
	if err != nil {
		t.Errorf("start on locked run must be allowed, got %v", err)
	}
}

func TestCanSkip(t *testing.T) {
	tests := []struct {
		name     string
		run      *domain.WorkflowRun
		item     *domain.WorkflowItem
		reason   string
		expected error
	}{
		{"not started item", activeRun(), itemWithStatus(domain.ItemStatusNotStarted), "N/A", nil},
		{"in progress item", activeRun(), itemWithStatus(domain.ItemStatusInProgress), "N/A", nil},
		{"re-skip records new reason", activeRun(), itemWithStatus(domain.ItemStatusSkipped), "still N/A", nil},
		{"empty reason", activeRun(), itemWithStatus(domain.ItemStatusNotStarted), "", ErrReasonRequired},
		{"blank reason", activeRun(), itemWithStatus(domain.ItemStatusNotStarted), "   ", ErrReasonRequired},
		{"submitted item", activeRun(), itemWithStatus(domain.ItemStatusSubmitted), "N/A", ErrItemAlreadySubmitted},
		{"cancelled run", cancelledRun(), itemWithStatus(domain.ItemStatusNotStarted), "N/A", ErrRunCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanSkip(tt.run, tt.item, tt.reason)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestCanSkip_LockedRunAllowed(t *testing.T) {
	err := CanSkip(lockedRun(), itemWithStatus(domain.ItemStatusInProgress), "no longer needed")
	if err != nil {
		t.Errorf("skip on locked run must be allowed, got %v", err)
	}
}

func TestCanMarkSubmitted(t *testing.T) {
	if err := CanMarkSubmitted(activeRun(), itemWithStatus(domain.ItemStatusInProgress)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Повторный callback для уже submitted item легален (идемпотентность).
	if err := CanMarkSubmitted(activeRun(), itemWithStatus(domain.ItemStatusSubmitted)); err != nil {
		t.Errorf("repeated submit must pass the guard, got %v", err)
	}

	if err := CanMarkSubmitted(activeRun(), itemWithStatus(domain.ItemStatusSkipped)); !errors.Is(err, ErrItemTerminal) {
		t.Errorf("expected ErrItemTerminal, got %v", err)
	}

	// Гонка callback с отменой run — конфликт, не порча состояния.
	if err := CanMarkSubmitted(cancelledRun(), itemWithStatus(domain.ItemStatusInProgress)); !errors.Is(err, ErrRunCancelled) {
		t.Errorf("expected ErrRunCancelled, got %v", err)
	}
}

func TestCanAddRepeat(t *testing.T) {
	repeatable := itemWithStatus(domain.ItemStatusSubmitted)
	single := itemWithStatus(domain.ItemStatusSubmitted)
	single.AllowMultiple = false

	if err := CanAddRepeat(activeRun(), repeatable); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CanAddRepeat(activeRun(), single); !errors.Is(err, ErrNotRepeatable) {
		t.Errorf("expected ErrNotRepeatable, got %v", err)
	}
	if err := CanAddRepeat(lockedRun(), repeatable); !errors.Is(err, ErrRunLocked) {
		t.Errorf("expected ErrRunLocked, got %v", err)
	}
	if err := CanAddRepeat(cancelledRun(), repeatable); !errors.Is(err, ErrRunCancelled) {
		t.Errorf("expected ErrRunCancelled, got %v", err)
	}
}

func TestCanAddRepeat_CompletedRunAllowed(t *testing.T) {
	run := activeRun()
	run.Status = domain.RunStatusCompleted

	if err := CanAddRepeat(run, itemWithStatus(domain.ItemStatusSubmitted)); err != nil {
		t.Errorf("addRepeat on completed run must be allowed, got %v", err)
	}
}

func TestCanLock(t *testing.T) {
	if err := CanLock(activeRun()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CanLock(lockedRun()); err != nil {
		t.Errorf("repeated lock must pass the guard, got %v", err)
	}
	if err := CanLock(cancelledRun()); !errors.Is(err, ErrRunCancelled) {
		t.Errorf("expected ErrRunCancelled, got %v", err)
	}
}

func TestCanCancel(t *testing.T) {
	if err := CanCancel(activeRun(), "duplicate"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CanCancel(activeRun(), ""); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("expected ErrReasonRequired, got %v", err)
	}
	if err := CanCancel(cancelledRun(), "again"); !errors.Is(err, ErrRunCancelled) {
		t.Errorf("second cancel must conflict, got %v", err)
	}

	// Отмена completed run — административный override.
	run := activeRun()
	run.Status = domain.RunStatusCompleted
	if err := CanCancel(run, "opened by mistake"); err != nil {
		t.Errorf("cancel of completed run must be allowed, got %v", err)
	}
}

func TestCancelledRunRejectsEveryTransition(t *testing.T) {
	run := cancelledRun()
	item := itemWithStatus(domain.ItemStatusInProgress)

	checks := map[string]error{
		"assign":        CanAssign(run),
		"start":         CanStart(run, item),
		"skip":          CanSkip(run, item, "reason"),
		"markSubmitted": CanMarkSubmitted(run, item),
		"addRepeat":     CanAddRepeat(run, item),
		"lock":          CanLock(run),
		"cancel":        CanCancel(run, "reason"),
	}

	for op, err := range checks {
		if !errors.Is(err, ErrRunCancelled) {
			t.Errorf("%s on cancelled run: expected ErrRunCancelled, got %v", op, err)
		}
	}
}

func TestMarkLocked_Idempotent(t *testing.T) {
	run := activeRun()
	by := uuid.New()
	run.MarkLocked(by)

	first := *run.LockedAt
	time.Sleep(time.Millisecond)
	run.MarkLocked(uuid.New())

	if !run.LockedAt.Equal(first) {
		t.Error("repeated lock must not move locked_at")
	}
	if *run.LockedBy != by {
		t.Error("repeated lock must not change locked_by")
	}
}
