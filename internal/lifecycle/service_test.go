package lifecycle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/Formflow/internal/domain"
	"github.com/shaiso/Formflow/internal/engine"
	"github.com/shaiso/Formflow/internal/repo"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"version conflict", repo.ErrVersionConflict, true},
		{"wrapped version conflict", fmt.Errorf("update run: %w", repo.ErrVersionConflict), true},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"guard failure", engine.ErrRunCancelled, false},
		{"not found", repo.ErrNotFound, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.retryable {
				t.Errorf("isRetryable(%v) = %v, expected %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		err   error
		label string
	}{
		{nil, "ok"},
		{engine.ErrReasonRequired, "bad_request"},
		{engine.ErrNotRepeatable, "bad_request"},
		{ErrRunMismatch, "bad_request"},
		{engine.ErrRunCancelled, "conflict"},
		{engine.ErrRunLocked, "conflict"},
		{engine.ErrItemTerminal, "conflict"},
		{ErrContention, "conflict"},
		{repo.ErrNotFound, "not_found"},
		{errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		if got := resultLabel(tt.err); got != tt.label {
			t.Errorf("resultLabel(%v) = %q, expected %q", tt.err, got, tt.label)
		}
	}
}

func TestResultLabelWrappedError(t *testing.T) {
	err := fmt.Errorf("apply skip: %w", engine.ErrItemAlreadySubmitted)
	if got := resultLabel(err); got != "conflict" {
		t.Errorf("expected conflict for wrapped guard error, got %q", got)
	}
}

func TestCompletedByTransition(t *testing.T) {
	tests := []struct {
		name     string
		was      domain.RunStatus
		now      domain.RunStatus
		announce bool
	}{
		{"completing submission", domain.RunStatusInProgress, domain.RunStatusCompleted, true},
		{"completing skip from start", domain.RunStatusNotStarted, domain.RunStatusCompleted, true},
		{"repeated callback on completed run", domain.RunStatusCompleted, domain.RunStatusCompleted, false},
		{"submission leaves run in progress", domain.RunStatusInProgress, domain.RunStatusInProgress, false},
		{"run stays not started", domain.RunStatusNotStarted, domain.RunStatusNotStarted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &domain.WorkflowRun{Status: tt.now}
			if got := completedByTransition(tt.was, run); got != tt.announce {
				t.Errorf("completedByTransition(%q, %q) = %v, expected %v", tt.was, tt.now, got, tt.announce)
			}
		})
	}
}
