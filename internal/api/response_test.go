package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shaiso/Formflow/internal/engine"
	"github.com/shaiso/Formflow/internal/lifecycle"
	"github.com/shaiso/Formflow/internal/repo"
)

func TestTransitionStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"reason required", engine.ErrReasonRequired, http.StatusBadRequest},
		{"not repeatable", engine.ErrNotRepeatable, http.StatusBadRequest},
		{"run mismatch", lifecycle.ErrRunMismatch, http.StatusBadRequest},
		{"run cancelled", engine.ErrRunCancelled, http.StatusConflict},
		{"run locked", engine.ErrRunLocked, http.StatusConflict},
		{"item terminal", engine.ErrItemTerminal, http.StatusConflict},
		{"already submitted", engine.ErrItemAlreadySubmitted, http.StatusConflict},
		{"contention", lifecycle.ErrContention, http.StatusConflict},
		{"not found", repo.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := transitionStatus(tt.err)
			if status != tt.status {
				t.Errorf("expected HTTP %d for %v, got %d", tt.status, tt.err, status)
			}
		})
	}
}

func TestHandleTransitionErrorStateOnlyOnConflict(t *testing.T) {
	calls := 0
	stateFn := func() *ErrorState {
		calls++
		return &ErrorState{RunStatus: "cancelled"}
	}

	// 400 не несёт state и не дёргает stateFn
	w := httptest.NewRecorder()
	HandleTransitionError(w, testLogger(), engine.ErrReasonRequired, stateFn)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if calls != 0 {
		t.Errorf("stateFn should not be called for bad request, got %d calls", calls)
	}

	// 409 прикладывает state
	w = httptest.NewRecorder()
	HandleTransitionError(w, testLogger(), engine.ErrRunCancelled, stateFn)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if calls != 1 {
		t.Errorf("stateFn should be called once for conflict, got %d calls", calls)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"run_status":"cancelled"`) {
		t.Errorf("conflict body should carry state, got %s", body)
	}
}

func TestHandleTransitionErrorNilIsNotHandled(t *testing.T) {
	w := httptest.NewRecorder()
	if HandleTransitionError(w, testLogger(), nil, nil) {
		t.Error("nil error should not be handled")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
